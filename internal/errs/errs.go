// ABOUTME: Error taxonomy shared by loaders, providers, stores and orchestrators
// ABOUTME: Sentinel kinds plus an Op wrapper so errors.Is matches both kind and cause
package errs

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrUnsupportedFormat      = errors.New("unsupported format")
	ErrCorruptDocument        = errors.New("corrupt document")
	ErrEmptyDocument          = errors.New("no documents to index: file may be empty or unreadable")
	ErrCapabilityUnavailable  = errors.New("capability unavailable")
	ErrDimensionMismatch      = errors.New("dimension mismatch")
	ErrEmbedding              = errors.New("embedding failed")
	ErrGenerationUnavailable  = errors.New("generation unavailable")
	ErrGeneration             = errors.New("generation failed")
	ErrRetrievalFailure       = errors.New("retrieval failed")
	ErrInvalidQuestion        = errors.New("question cannot be empty")
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
)

// ErrRateLimited marks a provider refusal due to quota or rate limits.
// It appears under ErrEmbedding or ErrGeneration rather than as a kind of its own.
var ErrRateLimited = errors.New("rate limited")

// Op records the operation that failed, the kind of failure and its cause.
type Op struct {
	Op   string
	Kind error
	Err  error
}

func (e *Op) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Op) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// E builds an *Op error.
func E(op string, kind, err error) error {
	return &Op{Op: op, Kind: kind, Err: err}
}

// DimensionMismatchError reports a collection whose dimensionality differs from the vectors being written.
type DimensionMismatchError struct {
	Collection string
	Existing   int
	Requested  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("collection %q is configured for vectors with %d dimensions, embeddings are %d-dimensional; recreate the collection to continue",
		e.Collection, e.Existing, e.Requested)
}

// Is makes errors.Is(err, ErrDimensionMismatch) true.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// KindOf returns the first taxonomy kind matched by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrInvalidQuestion,
		ErrUnsupportedFormat,
		ErrCorruptDocument,
		ErrEmptyDocument,
		ErrCapabilityUnavailable,
		ErrGenerationUnavailable,
		ErrDimensionMismatch,
		ErrVectorStoreUnavailable,
		ErrEmbedding,
		ErrRetrievalFailure,
		ErrGeneration,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
