// ABOUTME: HTTP server exposing upload, ask, summarize, reset and health endpoints
// ABOUTME: Wires the ingestion and query pipelines behind CORS and request logging
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/multimodal-rag/internal/models"
	"github.com/harper/multimodal-rag/internal/uploads"
)

// ServiceName is reported by /health
const ServiceName = "chatpdf-api"

// shutdownTimeout bounds graceful shutdown
const shutdownTimeout = 10 * time.Second

// Ingestor indexes a stored file and returns the number of chunks written
type Ingestor interface {
	Run(ctx context.Context, path string) (int, error)
}

// Querier answers questions over the indexed documents
type Querier interface {
	Answer(ctx context.Context, question string, k int) (models.Answer, error)
	AnswerStream(ctx context.Context, question string, k int) (models.StreamingAnswer, error)
	Summarize(ctx context.Context, question string) (models.Answer, error)
}

// Resetter drops the indexed collection
type Resetter interface {
	DeleteCollection(ctx context.Context) error
}

// Config configures a Server
type Config struct {
	Ingestor       Ingestor
	Querier        Querier
	Index          Resetter
	Uploads        *uploads.Store
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *log.Logger
}

// Server serves the RAG HTTP API
type Server struct {
	ingestor Ingestor
	querier  Querier
	index    Resetter
	uploads  *uploads.Store
	origins  []string
	timeout  time.Duration
	logger   *log.Logger
}

// New creates a Server from cfg
func New(cfg Config) (*Server, error) {
	if cfg.Ingestor == nil || cfg.Querier == nil || cfg.Index == nil || cfg.Uploads == nil {
		return nil, errors.New("api server requires an ingestor, querier, index and upload store")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Server{
		ingestor: cfg.Ingestor,
		querier:  cfg.Querier,
		index:    cfg.Index,
		uploads:  cfg.Uploads,
		origins:  origins,
		timeout:  timeout,
		logger:   logger.WithPrefix("api"),
	}, nil
}

// Handler returns the http.Handler for all routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /ask", s.handleAsk)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /summarize", s.handleSummarize)
	mux.HandleFunc("POST /summarize", s.handleSummarize)
	mux.HandleFunc("DELETE /reset", s.handleReset)

	return loggingMiddleware(s.logger, corsMiddleware(s.origins, mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
