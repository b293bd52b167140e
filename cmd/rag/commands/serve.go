// ABOUTME: Serve command runs the HTTP API
// ABOUTME: Shuts down gracefully on interrupt or SIGTERM
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/multimodal-rag/internal/api"
	"github.com/harper/multimodal-rag/internal/uploads"
)

var serveAddr string

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API

Serves /upload, /ask, /summarize, /reset and /health. Uploaded files are
stored in UPLOAD_DIR and indexed immediately.`,
		Example: `  # Listen on the configured HTTP_ADDR (default :8000)
  rag serve

  # Listen on another address
  rag serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides HTTP_ADDR)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := uploads.New(a.Config.UploadDir, a.Config.MaxFileSize)
	if err != nil {
		return err
	}

	srv, err := api.New(api.Config{
		Ingestor:       a.Ingestor,
		Querier:        a.Querier,
		Index:          a.Store,
		Uploads:        store,
		AllowedOrigins: a.Config.AllowedOrigins,
		RequestTimeout: a.Config.RequestTimeout,
		Logger:         a.Logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	addr := a.Config.HTTPAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	return srv.ListenAndServe(ctx, addr)
}
