// ABOUTME: In-package fakes for the pipeline's external capabilities
// ABOUTME: Deterministic embedder, scripted vision and generator, recording vector store
package core

import (
	"context"
	"sync"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/models"
)

type fakeLoader struct {
	doc models.Document
	err error
}

func (l *fakeLoader) Load(string) (models.Document, error) {
	return l.doc, l.err
}

// fakeEmbedder returns [len(text), 1, 0...] vectors and can fail the first N batch calls
type fakeEmbedder struct {
	mu        sync.Mutex
	dim       int
	failFirst int
	failWith  error
	batches   int
	singles   []string
}

func (e *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dim)
	v[0] = float32(len(text))
	if e.dim > 1 {
		v[1] = 1
	}
	return v
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.singles = append(e.singles, text)
	if e.failWith != nil {
		return nil, e.failWith
	}
	return e.vector(text), nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches++
	if e.batches <= e.failFirst {
		return nil, e.failWith
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *fakeEmbedder) Dimension() int { return e.dim }

// fakeVision answers from maps keyed by the image bytes; missing keys yield nil
type fakeVision struct {
	mu       sync.Mutex
	ocr      map[string]string
	captions map[string]string
	detailed []bool
}

func (v *fakeVision) Transcribe(_ context.Context, img []byte) *string {
	if text, ok := v.ocr[string(img)]; ok {
		return &text
	}
	return nil
}

func (v *fakeVision) Describe(_ context.Context, img []byte, detailed bool) *string {
	v.mu.Lock()
	v.detailed = append(v.detailed, detailed)
	v.mu.Unlock()
	if text, ok := v.captions[string(img)]; ok {
		return &text
	}
	return nil
}

type fakeGenerator struct {
	text      *string
	fragments []string
	err       error

	lastContext  string
	lastQuestion string
}

func (g *fakeGenerator) Generate(_ context.Context, contextText, question string) (models.GenerationResult, error) {
	g.lastContext, g.lastQuestion = contextText, question
	if g.err != nil {
		return models.GenerationResult{}, g.err
	}
	return models.GenerationResult{Text: g.text}, nil
}

func (g *fakeGenerator) GenerateStream(_ context.Context, contextText, question string) (models.FragmentStream, error) {
	g.lastContext, g.lastQuestion = contextText, question
	if g.err != nil {
		return nil, g.err
	}
	return models.NewStaticStream(g.fragments...), nil
}

// fakeStore records upserts and can report a dimension mismatch on unforced writes
type fakeStore struct {
	dim            int
	mismatch       bool
	mismatchAlways bool
	ensureErr      error
	searchErr      error
	results        models.RetrievalResult

	ensured  int
	forced   []bool
	stored   []models.Chunk
	vectors  [][]float32
	searchK  int
	searched bool
}

func (s *fakeStore) State(context.Context) (models.CollectionState, error) {
	if s.mismatch {
		return models.CollectionIncompatible, nil
	}
	return models.CollectionCompatible, nil
}

func (s *fakeStore) EnsureCollection(context.Context) error {
	s.ensured++
	return s.ensureErr
}

func (s *fakeStore) Upsert(_ context.Context, chunks []models.Chunk, vectors [][]float32, force bool) error {
	s.forced = append(s.forced, force)
	if s.mismatchAlways || (s.mismatch && !force) {
		return &errs.DimensionMismatchError{Collection: "test", Existing: 3, Requested: s.dim}
	}
	s.mismatch = false
	s.stored = append(s.stored, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *fakeStore) Search(_ context.Context, _ []float32, k int) (models.RetrievalResult, error) {
	s.searched = true
	s.searchK = k
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if len(s.results) > k {
		return s.results[:k], nil
	}
	return s.results, nil
}

func (s *fakeStore) DeleteCollection(context.Context) error {
	s.stored, s.vectors = nil, nil
	return nil
}

func (s *fakeStore) Close() error { return nil }
