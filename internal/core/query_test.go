// ABOUTME: Tests for the Querier and context rendering
// ABOUTME: Covers validation, canned answers, fallbacks, streaming and error classification
package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/logging"
	"github.com/harper/multimodal-rag/internal/models"
)

func strPtr(s string) *string { return &s }

func scored(content, file string, page *int, score float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk: models.Chunk{ID: content, Content: content, Metadata: models.Metadata{SourceFile: file, Page: page}},
		Score: score,
	}
}

func newTestQuerier(store *fakeStore, gen *fakeGenerator) (*Querier, *fakeEmbedder) {
	emb := &fakeEmbedder{dim: 4}
	return NewQuerier(emb, store, gen, 5, logging.Discard()), emb
}

func TestQuerier_BlankQuestion(t *testing.T) {
	store := &fakeStore{}
	q, emb := newTestQuerier(store, &fakeGenerator{})

	for _, question := range []string{"", "   ", "\n\t"} {
		_, err := q.Answer(context.Background(), question, 3)
		assert.ErrorIs(t, err, errs.ErrInvalidQuestion)

		_, err = q.AnswerStream(context.Background(), question, 3)
		assert.ErrorIs(t, err, errs.ErrInvalidQuestion)
	}
	assert.Empty(t, emb.singles, "no embedding call for a blank question")
	assert.False(t, store.searched)
}

func TestQuerier_NoResults(t *testing.T) {
	gen := &fakeGenerator{text: strPtr("should not be used")}
	q, _ := newTestQuerier(&fakeStore{}, gen)

	ans, err := q.Answer(context.Background(), "anything?", 3)
	require.NoError(t, err)
	assert.Equal(t, NoResultsAnswer, ans.Text)
	assert.Empty(t, ans.Sources)
	assert.Empty(t, gen.lastQuestion, "generator should not be called")

	streamed, err := q.AnswerStream(context.Background(), "anything?", 3)
	require.NoError(t, err)
	text, err := models.Collect(streamed.Stream)
	require.NoError(t, err)
	assert.Equal(t, NoResultsAnswer, text)
	assert.Empty(t, streamed.Sources)
}

func TestQuerier_Answer(t *testing.T) {
	store := &fakeStore{results: models.RetrievalResult{
		scored("Paris is the capital of France.", "geo.pdf", models.IntPtr(2), 0.9),
		scored("France is in Europe.", "", nil, 0.5),
	}}
	gen := &fakeGenerator{text: strPtr("  The capital is Paris.  ")}
	q, emb := newTestQuerier(store, gen)

	ans, err := q.Answer(context.Background(), "What is the capital of France?", 0)
	require.NoError(t, err)

	assert.Equal(t, "The capital is Paris.", ans.Text)
	assert.Len(t, ans.Sources, 2)
	assert.Equal(t, 5, store.searchK, "k <= 0 uses the default")
	assert.Equal(t, []string{"What is the capital of France?"}, emb.singles)
	assert.Equal(t, "What is the capital of France?", gen.lastQuestion)
	assert.Equal(t,
		"[Source 1: geo.pdf (Page 2)]\nParis is the capital of France.\n\n---\n\n[Source 2: Unknown]\nFrance is in Europe.",
		gen.lastContext)
}

func TestQuerier_BlankGenerationFallsBack(t *testing.T) {
	tests := []struct {
		name string
		text *string
		want string
	}{
		{"no text", nil, models.FallbackAnswer},
		{"empty", strPtr(""), EmptyAnswerFallback},
		{"whitespace", strPtr(" \n "), EmptyAnswerFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{results: models.RetrievalResult{scored("chunk", "a.txt", nil, 1)}}
			q, _ := newTestQuerier(store, &fakeGenerator{text: tt.text})

			ans, err := q.Answer(context.Background(), "question", 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ans.Text)
		})
	}
}

func TestQuerier_AnswerStream(t *testing.T) {
	store := &fakeStore{results: models.RetrievalResult{scored("chunk", "a.txt", nil, 1)}}
	gen := &fakeGenerator{fragments: []string{"Hel", "lo"}}
	q, _ := newTestQuerier(store, gen)

	ans, err := q.AnswerStream(context.Background(), "question", 2)
	require.NoError(t, err)

	text, err := models.Collect(ans.Stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Len(t, ans.Sources, 1)
	assert.Equal(t, 2, store.searchK)
}

func TestQuerier_Summarize(t *testing.T) {
	store := &fakeStore{results: models.RetrievalResult{scored("chunk", "a.txt", nil, 1)}}
	gen := &fakeGenerator{text: strPtr("Summary.")}
	q, _ := newTestQuerier(store, gen)

	ans, err := q.Summarize(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Summary.", ans.Text)
	assert.Equal(t, DefaultSummaryQuestion, gen.lastQuestion)
	assert.Equal(t, SummaryK, store.searchK)

	_, err = q.Summarize(context.Background(), "Key risks?")
	require.NoError(t, err)
	assert.Equal(t, "Key risks?", gen.lastQuestion)
}

func TestQuerier_Failures(t *testing.T) {
	results := models.RetrievalResult{scored("chunk", "a.txt", nil, 1)}
	tests := []struct {
		name     string
		embedErr error
		store    *fakeStore
		genErr   error
		want     []error
	}{
		{
			name:     "missing credential keeps its kind",
			embedErr: errs.E("embed", errs.ErrCapabilityUnavailable, errors.New("no key")),
			store:    &fakeStore{},
			want:     []error{errs.ErrCapabilityUnavailable},
		},
		{
			name:     "embedding failure is a retrieval failure",
			embedErr: errs.E("embed", errs.ErrEmbedding, errors.New("503")),
			store:    &fakeStore{},
			want:     []error{errs.ErrRetrievalFailure, errs.ErrEmbedding},
		},
		{
			name:  "store unavailable",
			store: &fakeStore{searchErr: errs.E("search", errs.ErrVectorStoreUnavailable, errors.New("refused"))},
			want:  []error{errs.ErrRetrievalFailure, errs.ErrVectorStoreUnavailable},
		},
		{
			name:   "generation failure passes through",
			store:  &fakeStore{results: results},
			genErr: errs.E("generate", errs.ErrGeneration, errors.New("500")),
			want:   []error{errs.ErrGeneration},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := &fakeEmbedder{dim: 4, failWith: tt.embedErr}
			q := NewQuerier(emb, tt.store, &fakeGenerator{err: tt.genErr}, 5, logging.Discard())

			_, err := q.Answer(context.Background(), "question", 3)
			require.Error(t, err)
			for _, want := range tt.want {
				assert.ErrorIs(t, err, want)
			}
			if !errors.Is(tt.want[0], errs.ErrCapabilityUnavailable) {
				assert.NotErrorIs(t, err, errs.ErrCapabilityUnavailable)
			}
		})
	}
}

func TestSourceLabel(t *testing.T) {
	tests := []struct {
		name string
		meta models.Metadata
		want string
	}{
		{"file only", models.Metadata{SourceFile: "notes.txt"}, "notes.txt"},
		{"page", models.Metadata{SourceFile: "a.pdf", Page: models.IntPtr(3)}, "a.pdf (Page 3)"},
		{"slide", models.Metadata{SourceFile: "deck.pptx", SlideNumber: models.IntPtr(7)}, "deck.pptx (Slide 7)"},
		{"unknown", models.Metadata{}, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceLabel(tt.meta); got != tt.want {
				t.Errorf("SourceLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
