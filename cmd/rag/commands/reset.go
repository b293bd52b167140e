// ABOUTME: Reset command deletes the vector collection
// ABOUTME: Optionally clears the upload directory as the HTTP reset endpoint does
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/multimodal-rag/internal/api"
	"github.com/harper/multimodal-rag/internal/uploads"
)

var resetUploads bool

// NewResetCmd creates the reset command
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all indexed documents",
		Long: `Delete all indexed documents by dropping the vector collection.

With --uploads, files in UPLOAD_DIR are removed as well.`,
		Example: `  rag reset
  rag reset --uploads`,
		Args: cobra.NoArgs,
		RunE: runReset,
	}

	cmd.Flags().BoolVar(&resetUploads, "uploads", false, "Also delete stored uploads")

	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Store.DeleteCollection(cmd.Context()); err != nil {
		return fmt.Errorf("Error resetting database: %s", api.UserMessage(err))
	}

	removed := 0
	if resetUploads {
		store, err := uploads.New(a.Config.UploadDir, a.Config.MaxFileSize)
		if err != nil {
			return err
		}
		if removed, err = store.Reset(); err != nil {
			return fmt.Errorf("clearing uploads: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return printJSON(out, map[string]any{
			"status":          "success",
			"collection":      a.Config.CollectionName,
			"uploads_removed": removed,
		})
	}
	if !quiet {
		fmt.Fprintf(out, "Collection %q deleted\n", a.Config.CollectionName)
		if resetUploads {
			fmt.Fprintf(out, "%d upload(s) removed\n", removed)
		}
	}
	return nil
}
