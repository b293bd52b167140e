// ABOUTME: Builds the ingestion and query pipelines from configuration
// ABOUTME: Shared by the CLI commands, the HTTP server binary and the benchmark runner
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/harper/multimodal-rag/internal/config"
	"github.com/harper/multimodal-rag/internal/core"
	"github.com/harper/multimodal-rag/internal/llm"
	"github.com/harper/multimodal-rag/internal/loader"
	"github.com/harper/multimodal-rag/internal/storage"
)

// App holds the wired pipeline components
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	LLM      *llm.OpenAIClient
	Store    core.VectorStore
	Ingestor *core.Ingestor
	Querier  *core.Querier
}

// New opens the configured vector backend and wires the pipelines around it
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	client := llm.NewOpenAIClient(llm.ConfigFrom(cfg), logger.WithPrefix("llm"))

	store, err := storage.Open(ctx, cfg, client.Dimension(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	a, err := assemble(cfg, client, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

// NewWithStore wires the pipelines around an already opened store
func NewWithStore(cfg *config.Config, client *llm.OpenAIClient, store core.VectorStore, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}
	if client == nil {
		client = llm.NewOpenAIClient(llm.ConfigFrom(cfg), logger.WithPrefix("llm"))
	}
	return assemble(cfg, client, store, logger)
}

func assemble(cfg *config.Config, client *llm.OpenAIClient, store core.VectorStore, logger *log.Logger) (*App, error) {
	chunker, err := core.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	var vision core.VisionExtractor
	if client.Available() {
		vision = client
	}

	opts := core.IngestOptions{
		VisionConcurrency: cfg.VisionConcurrency,
		DetailedCaptions:  cfg.DetailedCaptions,
		EmbedMaxRetries:   cfg.EmbedMaxRetries,
		EmbedRetryDelay:   cfg.EmbedRetryDelay,
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		LLM:      client,
		Store:    store,
		Ingestor: core.NewIngestor(loader.New(logger.WithPrefix("loader")), chunker, vision, client, store, opts, logger.WithPrefix("ingest")),
		Querier:  core.NewQuerier(client, store, client, cfg.DefaultK, logger.WithPrefix("query")),
	}, nil
}

// Close releases the vector store connection
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("failed to close vector store: %w", err)
	}
	return nil
}
