// ABOUTME: Summarize command produces a summary of the indexed documents
// ABOUTME: An optional question focuses the summary
package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/multimodal-rag/internal/api"
)

// NewSummarizeCmd creates the summarize command
func NewSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize [question]",
		Short: "Summarize the indexed documents",
		Long: `Summarize the indexed documents.

Uses a wider retrieval window than ask. Without a question, a general
detailed summary is requested.`,
		Example: `  rag summarize
  rag summarize "Focus on the financial results"`,
		RunE: runSummarize,
	}

	return cmd
}

func runSummarize(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ans, err := a.Querier.Summarize(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return errors.New(api.UserMessage(err))
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return printJSON(out, api.SummaryResponse{
			Summary:     ans.Text,
			SourceCount: len(ans.Sources),
			Sources:     api.BuildSources(ans.Sources),
		})
	}

	fmt.Fprintln(out, ans.Text)
	if !quiet {
		fmt.Fprintln(out)
		printSources(out, ans.Sources)
	}
	return nil
}
