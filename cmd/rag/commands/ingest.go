// ABOUTME: Ingest command indexes local files into the vector collection
// ABOUTME: Reports per-file chunk counts and continues past individual failures
package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/multimodal-rag/internal/api"
	"github.com/harper/multimodal-rag/internal/loader"
)

// ingestResult is the outcome for one file
type ingestResult struct {
	File          string `json:"file"`
	FileType      string `json:"file_type"`
	ChunksIndexed int    `json:"chunks_indexed"`
	Error         string `json:"error,omitempty"`
}

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Index files for question answering",
		Long: `Index files for question answering.

Supported formats: ` + strings.Join(loader.SupportedExtensions(), " ") + `

Files are loaded, split into overlapping chunks, embedded and stored.
Images (standalone or embedded in PDF and PowerPoint files) are
transcribed and described by the vision model.`,
		Example: `  rag ingest handbook.pdf
  rag ingest slides.pptx diagram.png notes.md
  rag ingest --format json report.docx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	results := make([]ingestResult, 0, len(args))
	failed := 0
	for _, path := range args {
		ext := strings.ToLower(filepath.Ext(path))
		res := ingestResult{File: path, FileType: ext}

		if !loader.IsSupported(ext) {
			res.Error = fmt.Sprintf("Unsupported file type: %s", ext)
		} else if count, err := a.Ingestor.Run(cmd.Context(), path); err != nil {
			a.Logger.Debug("ingest failed", "file", path, "error", err)
			res.Error = api.IngestMessage(err)
		} else {
			res.ChunksIndexed = count
		}

		if res.Error != "" {
			failed++
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		if err := printJSON(out, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Error != "" {
				fmt.Fprintf(out, "✗ %s: %s\n", r.File, r.Error)
				continue
			}
			if !quiet {
				fmt.Fprintf(out, "✓ %s: %d chunks indexed\n", r.File, r.ChunksIndexed)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to index", failed, len(args))
	}
	return nil
}
