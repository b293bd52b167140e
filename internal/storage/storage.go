// ABOUTME: Vector store factory selecting a backend from configuration
// ABOUTME: Supports qdrant, pgvector, sqlite and an in-process memory store
package storage

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/harper/multimodal-rag/internal/config"
	"github.com/harper/multimodal-rag/internal/core"
	"github.com/harper/multimodal-rag/internal/storage/postgres"
	"github.com/harper/multimodal-rag/internal/storage/qdrant"
	"github.com/harper/multimodal-rag/internal/storage/sqlite"
)

// Open creates the vector store configured by cfg for vectors of dimension dim
func Open(ctx context.Context, cfg *config.Config, dim int, logger *log.Logger) (core.VectorStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("store")

	switch cfg.VectorBackend {
	case config.BackendQdrant, "":
		host, port, useTLS, err := cfg.QdrantEndpoint()
		if err != nil {
			return nil, err
		}
		logger.Debug("using qdrant", "host", host, "port", port, "collection", cfg.CollectionName)
		return qdrant.New(qdrant.Config{
			Host:       host,
			Port:       port,
			APIKey:     cfg.QdrantAPIKey,
			UseTLS:     useTLS,
			Collection: cfg.CollectionName,
			Dimension:  dim,
		}, logger)

	case config.BackendPGVector:
		logger.Debug("using pgvector", "collection", cfg.CollectionName)
		return postgres.Open(ctx, cfg.DatabaseURL, cfg.CollectionName, dim, logger)

	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = sqlite.DefaultDBPath()
		}
		logger.Debug("using sqlite", "path", path, "collection", cfg.CollectionName)
		return sqlite.OpenStore(ctx, path, cfg.CollectionName, dim, logger)

	case config.BackendMemory:
		logger.Debug("using in-memory store", "collection", cfg.CollectionName)
		return NewMemoryStore(cfg.CollectionName, dim, logger), nil

	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}
