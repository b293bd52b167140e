// ABOUTME: Process-local vector store with brute-force cosine similarity search
// ABOUTME: Backs tests and the benchmark; contents vanish when the process exits
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/models"
	"github.com/harper/multimodal-rag/internal/storage/vecmath"
)

type memoryRecord struct {
	chunk  models.Chunk
	vector []float32
}

// MemoryStore keeps one collection in memory
type MemoryStore struct {
	mu         sync.RWMutex
	name       string
	dim        int
	exists     bool
	collDim    int
	records    []memoryRecord
	positionOf map[string]int
	logger     *log.Logger
}

// NewMemoryStore creates an empty store whose collection will use dimension dim
func NewMemoryStore(name string, dim int, logger *log.Logger) *MemoryStore {
	if logger == nil {
		logger = log.Default()
	}
	return &MemoryStore{
		name:       name,
		dim:        dim,
		positionOf: map[string]int{},
		logger:     logger,
	}
}

// State reports whether the collection exists and matches the configured dimension
func (s *MemoryStore) State(_ context.Context) (models.CollectionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case !s.exists:
		return models.CollectionAbsent, nil
	case s.collDim != s.dim:
		return models.CollectionIncompatible, nil
	default:
		return models.CollectionCompatible, nil
	}
}

// EnsureCollection creates the collection when it is absent
func (s *MemoryStore) EnsureCollection(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		s.create(s.dim)
	}
	return nil
}

func (s *MemoryStore) create(dim int) {
	s.exists = true
	s.collDim = dim
	s.records = nil
	s.positionOf = map[string]int{}
}

// Upsert writes chunk vectors, replacing records with the same ID in place
func (s *MemoryStore) Upsert(_ context.Context, chunks []models.Chunk, vectors [][]float32, forceRecreate bool) error {
	dim, err := vecmath.BatchDimension(len(chunks), vectors)
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", s.name, err)
	}
	if dim == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.exists:
		s.create(dim)
	case s.collDim != dim && !forceRecreate:
		return &errs.DimensionMismatchError{Collection: s.name, Existing: s.collDim, Requested: dim}
	case s.collDim != dim:
		s.logger.Warn("recreating collection with new dimension; all indexed data is deleted",
			"collection", s.name, "existing", s.collDim, "requested", dim, "records_lost", len(s.records))
		s.create(dim)
	}

	for i, chunk := range chunks {
		rec := memoryRecord{chunk: chunk, vector: vectors[i]}
		if pos, ok := s.positionOf[chunk.ID]; ok {
			s.records[pos] = rec
			continue
		}
		s.positionOf[chunk.ID] = len(s.records)
		s.records = append(s.records, rec)
	}
	return nil
}

// Search returns the k most similar chunks; ties keep insertion order
func (s *MemoryStore) Search(_ context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.exists || len(s.records) == 0 || k <= 0 {
		return models.RetrievalResult{}, nil
	}
	if len(vector) != s.collDim {
		return nil, &errs.DimensionMismatchError{Collection: s.name, Existing: s.collDim, Requested: len(vector)}
	}

	results := make(models.RetrievalResult, len(s.records))
	for i, rec := range s.records {
		results[i] = models.ScoredChunk{Chunk: rec.chunk, Score: vecmath.Cosine(vector, rec.vector)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteCollection drops the collection; deleting an absent collection is a no-op
func (s *MemoryStore) DeleteCollection(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exists = false
	s.collDim = 0
	s.records = nil
	s.positionOf = map[string]int{}
	return nil
}

// Count returns the number of stored records
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
