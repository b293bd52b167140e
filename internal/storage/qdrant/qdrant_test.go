// ABOUTME: Tests for the Qdrant store: payload conversion offline, collection behaviour against a live server
// ABOUTME: Live tests run only when QDRANT_TEST_HOST is set
package qdrant

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	qc "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/logging"
	"github.com/harper/multimodal-rag/internal/models"
)

func TestFromValueMap_PreservesChunk(t *testing.T) {
	chunk := models.Chunk{
		ID:      uuid.New().String(),
		Content: "[IMAGE OCR] Total: 42",
		Metadata: models.Metadata{
			SourceFile:  "scan.png",
			FileType:    "image",
			ContentType: models.ContentTypeOCR,
			Format:      "PNG",
			Width:       640,
			Height:      480,
			Mode:        "RGB",
		},
	}

	values, err := qc.TryValueMap(chunk.ToPayload())
	require.NoError(t, err)

	got := models.ChunkFromPayload(chunk.ID, FromValueMap(values))
	assert.Equal(t, chunk, got)
}

func TestFromValueMap_Kinds(t *testing.T) {
	values, err := qc.TryValueMap(map[string]any{
		"s":      "text",
		"i":      int64(7),
		"f":      1.5,
		"b":      true,
		"list":   []any{int64(1), "two"},
		"nested": map[string]any{"k": "v"},
		"null":   nil,
	})
	require.NoError(t, err)

	got := FromValueMap(values)
	assert.Equal(t, "text", got["s"])
	assert.Equal(t, int64(7), got["i"])
	assert.Equal(t, 1.5, got["f"])
	assert.Equal(t, true, got["b"])
	assert.Equal(t, []any{int64(1), "two"}, got["list"])
	assert.Equal(t, map[string]any{"k": "v"}, got["nested"])
	assert.Nil(t, got["null"])
}

func liveStore(t *testing.T, dim int) *Store {
	t.Helper()
	host := os.Getenv("QDRANT_TEST_HOST")
	if host == "" {
		t.Skip("QDRANT_TEST_HOST not set")
	}
	port := 6334
	if p, err := strconv.Atoi(os.Getenv("QDRANT_TEST_PORT")); err == nil {
		port = p
	}

	s, err := New(Config{
		Host:       host,
		Port:       port,
		Collection: "test_" + uuid.New().String()[:8],
		Dimension:  dim,
	}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.DeleteCollection(context.Background())
		_ = s.Close()
	})
	return s
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
	state, err = s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionCompatible, state)

	chunks := []models.Chunk{
		{ID: uuid.New().String(), Content: "alpha", Metadata: models.Metadata{SourceFile: "a.txt", FileType: "txt"}},
		{ID: uuid.New().String(), Content: "beta", Metadata: models.Metadata{SourceFile: "b.pdf", FileType: "pdf", Page: models.IntPtr(2)}},
	}
	require.NoError(t, s.Upsert(ctx, chunks, [][]float32{{1, 0, 0}, {0, 1, 0}}, false))

	results, err = s.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chunks[1].ID, results[0].Chunk.ID)
	assert.Equal(t, "beta", results[0].Chunk.Content)
	assert.Equal(t, 2, *results[0].Chunk.Metadata.Page)

	err = s.Upsert(ctx, chunks[:1], [][]float32{{1, 0}}, false)
	var mismatch *errs.DimensionMismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, 3, mismatch.Existing)
	assert.Equal(t, 2, mismatch.Requested)

	require.NoError(t, s.Upsert(ctx, chunks[:1], [][]float32{{1, 0}}, true))
	state, err = s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionIncompatible, state)

	require.NoError(t, s.DeleteCollection(ctx))
	require.NoError(t, s.DeleteCollection(ctx))
}
