// ABOUTME: End-to-end tests of the wired pipelines against a fake model endpoint
// ABOUTME: Uses the in-memory and sqlite backends so no external services are needed
package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/multimodal-rag/internal/config"
	"github.com/harper/multimodal-rag/internal/core"
	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/llm/llmtest"
	"github.com/harper/multimodal-rag/internal/logging"
	"github.com/harper/multimodal-rag/internal/models"
	"github.com/harper/multimodal-rag/internal/storage"
)

const fakeAnswer = "The warranty lasts two years."

func testConfig(t *testing.T, backend string) (*config.Config, *llmtest.Server) {
	t.Helper()
	srv := llmtest.NewServer(t, 16, fakeAnswer)

	cfg := config.Default()
	cfg.APIKey = "test-key"
	cfg.LLMBaseURL = srv.BaseURL()
	cfg.EmbeddingDim = 16
	cfg.VectorBackend = backend
	cfg.SQLitePath = filepath.Join(t.TempDir(), "vectors.db")
	cfg.EmbedRetryDelay = 0
	return cfg, srv
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestApp_IngestAndAnswer(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg, srv := testConfig(t, backend)
			ctx := context.Background()

			a, err := New(ctx, cfg, logging.Discard())
			require.NoError(t, err)
			defer a.Close()

			path := writeDoc(t, "warranty.txt", "Warranty terms.\n\nThe device warranty lasts two years from purchase.")
			count, err := a.Ingestor.Run(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			ans, err := a.Querier.Answer(ctx, "How long is the warranty?", 0)
			require.NoError(t, err)
			assert.Equal(t, fakeAnswer, ans.Text)
			require.Len(t, ans.Sources, 1)
			assert.Equal(t, "warranty.txt", ans.Sources[0].Chunk.Metadata.SourceFile)

			prompts := srv.Prompts()
			require.NotEmpty(t, prompts)
			assert.Contains(t, prompts[len(prompts)-1], "[Source 1: warranty.txt]")
		})
	}
}

func TestApp_StreamMatchesBatch(t *testing.T) {
	cfg, _ := testConfig(t, config.BackendMemory)
	ctx := context.Background()

	a, err := New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Ingestor.Run(ctx, writeDoc(t, "a.md", "# Warranty\n\nTwo years."))
	require.NoError(t, err)

	batch, err := a.Querier.Answer(ctx, "warranty?", 3)
	require.NoError(t, err)

	streamed, err := a.Querier.AnswerStream(ctx, "warranty?", 3)
	require.NoError(t, err)
	text, err := models.Collect(streamed.Stream)
	require.NoError(t, err)

	assert.Equal(t, batch.Text, text)
	assert.Len(t, streamed.Sources, len(batch.Sources))
}

func TestApp_EmptyIndexAnswersCanned(t *testing.T) {
	cfg, srv := testConfig(t, config.BackendMemory)
	ctx := context.Background()

	a, err := New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	ans, err := a.Querier.Answer(ctx, "anything?", 0)
	require.NoError(t, err)
	assert.Equal(t, core.NoResultsAnswer, ans.Text)
	assert.Empty(t, ans.Sources)
	assert.Zero(t, srv.ChatCalls())
}

func TestApp_WithoutAPIKey(t *testing.T) {
	cfg, _ := testConfig(t, config.BackendMemory)
	cfg.APIKey = ""
	ctx := context.Background()

	a, err := New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.LLM.Available())
	_, err = a.Ingestor.Run(ctx, writeDoc(t, "a.txt", "content"))
	assert.ErrorIs(t, err, errs.ErrCapabilityUnavailable)
}

func TestNewWithStore(t *testing.T) {
	cfg, _ := testConfig(t, config.BackendMemory)
	store := storage.NewMemoryStore("bench", 16, logging.Discard())

	a, err := NewWithStore(cfg, nil, store, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Ingestor.Run(context.Background(), writeDoc(t, "a.txt", "hello world"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Count())
}

func TestNew_InvalidChunking(t *testing.T) {
	cfg, _ := testConfig(t, config.BackendMemory)
	cfg.ChunkOverlap = cfg.ChunkSize

	_, err := New(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}

func TestApp_AnswerWithoutGeneratedText(t *testing.T) {
	srv := llmtest.NewServer(t, 16, "")
	cfg := config.Default()
	cfg.APIKey = "test-key"
	cfg.LLMBaseURL = srv.BaseURL()
	cfg.EmbeddingDim = 16
	cfg.VectorBackend = config.BackendMemory
	cfg.EmbedRetryDelay = 0
	ctx := context.Background()

	a, err := New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Ingestor.Run(ctx, writeDoc(t, "notes.txt", "The office opens at nine."))
	require.NoError(t, err)

	ans, err := a.Querier.Answer(ctx, "When does the office open?", 0)
	require.NoError(t, err)
	assert.Equal(t, models.FallbackAnswer, ans.Text)
	assert.Len(t, ans.Sources, 1)
}
