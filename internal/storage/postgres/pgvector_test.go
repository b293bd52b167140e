// ABOUTME: Live tests for the pgvector store
// ABOUTME: Run only when PGVECTOR_TEST_DSN points at a database with the vector extension available
package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/logging"
	"github.com/harper/multimodal-rag/internal/models"
)

func liveStore(t *testing.T, dim int) *Store {
	t.Helper()
	dsn := os.Getenv("PGVECTOR_TEST_DSN")
	if dsn == "" {
		t.Skip("PGVECTOR_TEST_DSN not set")
	}

	collection := "test_" + strings.ReplaceAll(uuid.New().String()[:8], "-", "")
	s, err := Open(context.Background(), dsn, collection, dim, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.DeleteCollection(context.Background())
		_ = s.Close()
	})
	return s
}

func TestOpen_Unreachable(t *testing.T) {
	_, err := Open(context.Background(), "postgres://nobody@127.0.0.1:1/none?connect_timeout=1", "docs", 3, logging.Discard())
	assert.ErrorIs(t, err, errs.ErrVectorStoreUnavailable)
}

func TestStore_Live(t *testing.T) {
	s := liveStore(t, 3)
	ctx := context.Background()

	state, err := s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionAbsent, state)

	results, err := s.Search(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, s.EnsureCollection(ctx))
	require.NoError(t, s.EnsureCollection(ctx))
	state, err = s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionCompatible, state)

	chunks := []models.Chunk{
		{ID: uuid.New().String(), Content: "alpha", Metadata: models.Metadata{SourceFile: "a.pptx", SlideNumber: models.IntPtr(4)}},
		{ID: uuid.New().String(), Content: "beta", Metadata: models.Metadata{SourceFile: "b.txt"}},
	}
	require.NoError(t, s.Upsert(ctx, chunks, [][]float32{{1, 0, 0}, {0, 1, 0}}, false))

	results, err = s.Search(ctx, []float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Chunk.Content)
	assert.Equal(t, 4, *results[0].Chunk.Metadata.SlideNumber)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	err = s.Upsert(ctx, chunks[:1], [][]float32{{1, 0}}, false)
	var mismatch *errs.DimensionMismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, 3, mismatch.Existing)

	require.NoError(t, s.Upsert(ctx, chunks[:1], [][]float32{{1, 0}}, true))
	results, err = s.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	require.NoError(t, s.DeleteCollection(ctx))
	require.NoError(t, s.DeleteCollection(ctx))
}
