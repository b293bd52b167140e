// ABOUTME: Maps pipeline errors onto user-facing messages and HTTP status codes
// ABOUTME: Unrecognized failures never expose internal error text
package api

import (
	"errors"
	"net/http"

	"github.com/harper/multimodal-rag/internal/errs"
)

// User-facing messages
const (
	MsgCredential       = "Google API key is missing or invalid. Please check your .env file."
	MsgVectorStore      = "Vector database error. Please ensure Qdrant is running and you have uploaded at least one document."
	MsgNoDocuments      = "No documents found. Please upload at least one document first."
	MsgRetrieval        = "Failed to retrieve documents from vector database. Please ensure documents are properly indexed."
	MsgGenerationPrefix = "Failed to generate answer: "
	MsgRateLimited      = "API quota exceeded or rate limited. Please try again later."
	MsgModelError       = "the language model request failed. Please try again."
	MsgGeneric          = "Error processing request"
	MsgEmptyQuestion    = "Question cannot be empty"

	MsgUploadPrefix  = "Error processing file: "
	MsgUploadEmpty   = "No content could be extracted. The file may be empty or unreadable."
	MsgUploadCorrupt = "The file could not be parsed. It may be corrupt or in an unexpected format."
	MsgUnsupported   = "Unsupported file type"
)

// UserMessage rewrites err into one of the fixed user-facing categories.
// The first matching category wins.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errs.ErrInvalidQuestion):
		return MsgEmptyQuestion
	case errors.Is(err, errs.ErrCapabilityUnavailable), errors.Is(err, errs.ErrGenerationUnavailable):
		return MsgCredential
	case errors.Is(err, errs.ErrVectorStoreUnavailable), errors.Is(err, errs.ErrDimensionMismatch):
		return MsgVectorStore
	case errors.Is(err, errs.ErrEmptyDocument):
		return MsgNoDocuments
	case errors.Is(err, errs.ErrRetrievalFailure):
		return MsgRetrieval
	case errors.Is(err, errs.ErrGeneration):
		if errors.Is(err, errs.ErrRateLimited) {
			return MsgGenerationPrefix + MsgRateLimited
		}
		return MsgGenerationPrefix + MsgModelError
	default:
		return MsgGeneric
	}
}

// IngestMessage is UserMessage for ingestion failures, prefixed as the upload endpoint reports them
func IngestMessage(err error) string {
	switch {
	case errors.Is(err, errs.ErrCapabilityUnavailable):
		return MsgUploadPrefix + MsgCredential
	case errors.Is(err, errs.ErrEmptyDocument):
		return MsgUploadPrefix + MsgUploadEmpty
	case errors.Is(err, errs.ErrCorruptDocument):
		return MsgUploadPrefix + MsgUploadCorrupt
	case errors.Is(err, errs.ErrUnsupportedFormat):
		return MsgUploadPrefix + MsgUnsupported
	}
	return MsgUploadPrefix + UserMessage(err)
}

// StatusCode returns the HTTP status for err: 400 for invalid input, 500 otherwise
func StatusCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidQuestion), errors.Is(err, errs.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// logFailure logs a pipeline error together with its taxonomy kind
func (s *Server) logFailure(msg string, err error, keyvals ...any) {
	s.logger.Error(msg, append([]any{"kind", errs.KindOf(err), "error", err}, keyvals...)...)
}
