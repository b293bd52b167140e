// ABOUTME: MCP tool handler implementations for the document RAG server
// ABOUTME: Tool failures are reported as error results with user-facing messages
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/multimodal-rag/internal/api"
	"github.com/harper/multimodal-rag/internal/loader"
	"github.com/harper/multimodal-rag/internal/models"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	ingestor Ingestor
	querier  Querier
	index    Resetter
	logger   *log.Logger
}

// AskDocuments handles the ask_documents tool
func (h *Handlers) AskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question argument is required and must be a non-empty string"), nil
	}
	k := request.GetInt("k", 0)

	answer, err := h.querier.Answer(ctx, question, k)
	if err != nil {
		h.logger.Error("ask_documents failed", "error", err)
		return mcp.NewToolResultError(api.UserMessage(err)), nil
	}

	return jsonResult(answerResponse("answer", answer))
}

// SummarizeDocuments handles the summarize_documents tool
func (h *Handlers) SummarizeDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question := request.GetString("question", "")

	answer, err := h.querier.Summarize(ctx, question)
	if err != nil {
		h.logger.Error("summarize_documents failed", "error", err)
		return mcp.NewToolResultError(api.UserMessage(err)), nil
	}

	return jsonResult(answerResponse("summary", answer))
}

// IngestDocument handles the ingest_document tool
func (h *Handlers) IngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil || strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !loader.IsSupported(ext) {
		return mcp.NewToolResultError(fmt.Sprintf("Unsupported file type: %s. Supported: %s",
			ext, strings.Join(loader.SupportedExtensions(), ", "))), nil
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return mcp.NewToolResultError(fmt.Sprintf("file not found: %s", path)), nil
	}

	count, err := h.ingestor.Run(ctx, path)
	if err != nil {
		h.logger.Error("ingest_document failed", "path", path, "error", err)
		return mcp.NewToolResultError(api.IngestMessage(err)), nil
	}

	return jsonResult(map[string]interface{}{
		"status":         "success",
		"filename":       filepath.Base(path),
		"chunks_indexed": count,
		"file_type":      ext,
	})
}

// ResetIndex handles the reset_index tool
func (h *Handlers) ResetIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.index.DeleteCollection(ctx); err != nil {
		h.logger.Error("reset_index failed", "error", err)
		return mcp.NewToolResultError("Error resetting database: " + api.UserMessage(err)), nil
	}

	return jsonResult(map[string]interface{}{
		"status":  "success",
		"message": "Vector database reset successfully",
	})
}

// ListSupportedFormats handles the list_supported_formats tool
func (h *Handlers) ListSupportedFormats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]interface{}{
		"extensions": loader.SupportedExtensions(),
	})
}

func answerResponse(field string, answer models.Answer) map[string]interface{} {
	return map[string]interface{}{
		field:          answer.Text,
		"source_count": len(answer.Sources),
		"sources":      api.BuildSources(answer.Sources),
	}
}

func jsonResult(response map[string]interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
