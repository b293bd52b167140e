// ABOUTME: Vector collection state as seen by the ingestion pipeline
// ABOUTME: A collection is absent, compatible with the embedder, or fixed to another dimension
package models

// CollectionState describes the configured collection relative to the embedding dimension
type CollectionState int

const (
	// CollectionAbsent means no collection exists yet
	CollectionAbsent CollectionState = iota
	// CollectionCompatible means the collection exists with the expected dimension
	CollectionCompatible
	// CollectionIncompatible means the collection exists with a different dimension
	CollectionIncompatible
)

func (s CollectionState) String() string {
	switch s {
	case CollectionAbsent:
		return "absent"
	case CollectionCompatible:
		return "compatible"
	case CollectionIncompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}
