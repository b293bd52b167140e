// ABOUTME: Main entry point for the standalone HTTP API server
// ABOUTME: Loads configuration, wires the pipelines and serves until interrupted
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harper/multimodal-rag/internal/api"
	"github.com/harper/multimodal-rag/internal/app"
	"github.com/harper/multimodal-rag/internal/config"
	"github.com/harper/multimodal-rag/internal/logging"
	"github.com/harper/multimodal-rag/internal/uploads"
)

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found", "error", err)
	}

	cfg, err := config.LoadFile(os.Getenv("RAG_CONFIG"))
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	logger, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatal("failed to set up logging", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize pipeline", "error", err)
	}
	defer a.Close()

	store, err := uploads.New(cfg.UploadDir, cfg.MaxFileSize)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", "error", err)
	}

	srv, err := api.New(api.Config{
		Ingestor:       a.Ingestor,
		Querier:        a.Querier,
		Index:          a.Store,
		Uploads:        store,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		logger.Error("server error", "error", err)
		stop()
		a.Close()
		os.Exit(1)
	}
}
