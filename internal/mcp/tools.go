// ABOUTME: MCP tool definitions and registration for the document RAG server
// ABOUTME: Exposes ask, summarize, ingest, reset and format listing as MCP tools
package mcp

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/multimodal-rag/internal/models"
)

// Ingestor indexes a local file
type Ingestor interface {
	Run(ctx context.Context, path string) (int, error)
}

// Querier answers questions over indexed documents
type Querier interface {
	Answer(ctx context.Context, question string, k int) (models.Answer, error)
	Summarize(ctx context.Context, question string) (models.Answer, error)
}

// Resetter drops the indexed collection
type Resetter interface {
	DeleteCollection(ctx context.Context) error
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, ingestor Ingestor, querier Querier, index Resetter, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	handlers := &Handlers{
		ingestor: ingestor,
		querier:  querier,
		index:    index,
		logger:   logger.WithPrefix("mcp"),
	}

	server.AddTool(mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a question using the indexed documents. Returns the answer with the source chunks it was based on.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer",
				},
				"k": map[string]interface{}{
					"type":        "number",
					"description": "Number of chunks to retrieve (default: server setting)",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskDocuments)

	server.AddTool(mcp.Tool{
		Name:        "summarize_documents",
		Description: "Summarize the indexed documents, optionally focused by a question.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Optional focus for the summary",
				},
			},
		},
	}, handlers.SummarizeDocuments)

	server.AddTool(mcp.Tool{
		Name:        "ingest_document",
		Description: "Index a local file (PDF, DOCX, PPTX, TXT, Markdown or image) so it can be queried.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file to index",
				},
			},
			Required: []string{"path"},
		},
	}, handlers.IngestDocument)

	server.AddTool(mcp.Tool{
		Name:        "reset_index",
		Description: "Delete the vector collection and everything indexed in it.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ResetIndex)

	server.AddTool(mcp.Tool{
		Name:        "list_supported_formats",
		Description: "List the file extensions that can be indexed.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListSupportedFormats)

	return handlers
}
