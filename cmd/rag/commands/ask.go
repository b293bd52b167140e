// ABOUTME: Ask command answers a question from the indexed documents
// ABOUTME: Supports streaming output and JSON matching the HTTP response shape
package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/multimodal-rag/internal/api"
)

var (
	askK      int
	askStream bool
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the indexed documents",
		Long: `Ask a question about the indexed documents.

Retrieves the most similar chunks and asks the language model to answer
from them, citing its sources. Questions in Vietnamese are answered in
Vietnamese; other questions are answered in their own language.`,
		Example: `  rag ask "What does the warranty cover?"
  rag ask --k 8 "Summarize the revenue figures"
  rag ask --stream "Explain the architecture diagram"
  rag ask --format json "Who signed the contract?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().IntVar(&askK, "k", 0, "Number of chunks to retrieve (default DEFAULT_K)")
	cmd.Flags().BoolVar(&askStream, "stream", false, "Print the answer as it is generated")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		return errors.New(api.MsgEmptyQuestion)
	}
	if cmd.Flags().Changed("k") {
		if err := validatePositiveInt(askK, "k"); err != nil {
			return err
		}
	}

	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()

	if askStream && outputFormat != "json" {
		ans, err := a.Querier.AnswerStream(cmd.Context(), question, askK)
		if err != nil {
			return errors.New(api.UserMessage(err))
		}
		defer ans.Stream.Close()

		for {
			fragment, ok, err := ans.Stream.Next()
			if err != nil {
				fmt.Fprintln(out)
				return errors.New(api.UserMessage(err))
			}
			if !ok {
				break
			}
			fmt.Fprint(out, fragment)
		}
		fmt.Fprintln(out)
		if !quiet {
			fmt.Fprintln(out)
			printSources(out, ans.Sources)
		}
		return nil
	}

	ans, err := a.Querier.Answer(cmd.Context(), question, askK)
	if err != nil {
		return errors.New(api.UserMessage(err))
	}

	if outputFormat == "json" {
		return printJSON(out, api.AskResponse{
			Answer:      ans.Text,
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
