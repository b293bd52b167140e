// ABOUTME: Shared helpers for CLI commands: config loading, app wiring and output formatting
// ABOUTME: Every pipeline command goes through loadApp so flags and .env apply uniformly
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harper/multimodal-rag/internal/api"
	"github.com/harper/multimodal-rag/internal/app"
	"github.com/harper/multimodal-rag/internal/config"
	"github.com/harper/multimodal-rag/internal/logging"
	"github.com/harper/multimodal-rag/internal/models"
)

// loadConfig reads .env, the YAML config file and the environment
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	path := configPath
	if path == "" {
		path = os.Getenv("RAG_CONFIG")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setupLogger builds the stderr logger, letting --verbose and --quiet override the configured level
func setupLogger(cfg *config.Config) (*log.Logger, error) {
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.Setup(logging.Options{Level: level, Format: cfg.LogFormat})
}

// loadApp loads configuration and wires the pipelines
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := setupLogger(cfg)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing pipeline: %w", err)
	}
	return a, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

// location renders the page or slide of a source, or "-"
func location(s api.Source) string {
	switch {
	case s.Page != nil:
		return fmt.Sprintf("page %d", *s.Page)
	case s.SlideNumber != nil:
		return fmt.Sprintf("slide %d", *s.SlideNumber)
	default:
		return "-"
	}
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", data)
	return nil
}

// printSources writes a table of retrieved sources
func printSources(w io.Writer, results models.RetrievalResult) {
	if len(results) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tSOURCE\tLOCATION\tTYPE\tPREVIEW\n")
	fmt.Fprintf(tw, "-\t------\t--------\t----\t-------\n")
	for _, s := range api.BuildSources(results) {
		kind := "text"
		if s.ContentType != nil {
			kind = *s.ContentType
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			s.Index,
			truncate(s.SourceFile, 30),
			location(s),
			kind,
			truncate(flatten(s.Preview), 60))
	}
	tw.Flush()
}

// flatten collapses whitespace runs so previews fit on one line
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
