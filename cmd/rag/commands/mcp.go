// ABOUTME: MCP command starts a Model Context Protocol server
// ABOUTME: Lets LLM agents like Claude query and index documents over stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/multimodal-rag/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the RAG pipeline as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to ask questions about indexed documents, request
summaries and index new files via stdio.

Configure in Claude Desktop's config file to enable the document tools.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  rag mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "rag": {
  #       "command": "rag",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.LLM.Available() {
		a.Logger.Warn("no API key set; ask, summarize and ingest tools will report errors")
	}

	server := mcpserver.NewMCPServer(
		"Multimodal RAG",
		versionInfo.Version,
		mcpserver.WithToolCapabilities(false),
	)
	mcp.RegisterTools(server, a.Ingestor, a.Querier, a.Store, a.Logger.WithPrefix("mcp"))

	a.Logger.Info("MCP server starting on stdio", "backend", a.Config.VectorBackend)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
