// ABOUTME: Narrow interfaces for the external capabilities the pipeline depends on
// ABOUTME: Implemented by internal/loader, internal/llm and internal/storage
package core

import (
	"context"

	"github.com/harper/multimodal-rag/internal/models"
)

// DocumentLoader turns a file into text segments and images
type DocumentLoader interface {
	Load(path string) (models.Document, error)
}

// Embedder maps text to fixed-size vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// VisionExtractor derives text from images. Nil results mean nothing usable was produced.
type VisionExtractor interface {
	Transcribe(ctx context.Context, img []byte) *string
	Describe(ctx context.Context, img []byte, detailed bool) *string
}

// Generator answers a question from retrieved context
type Generator interface {
	Generate(ctx context.Context, contextText, question string) (models.GenerationResult, error)
	GenerateStream(ctx context.Context, contextText, question string) (models.FragmentStream, error)
}

// VectorStore persists chunk vectors in a single named collection
type VectorStore interface {
	State(ctx context.Context) (models.CollectionState, error)
	EnsureCollection(ctx context.Context) error
	// Upsert writes one record per chunk. With forceRecreate an incompatible
	// collection is dropped and recreated before writing.
	Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32, forceRecreate bool) error
	Search(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error)
	DeleteCollection(ctx context.Context) error
	Close() error
}
