// ABOUTME: Tests for MCP tool registration and handlers
// ABOUTME: Handlers run against fake pipelines and return JSON text results
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/multimodal-rag/internal/api"
	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/logging"
	"github.com/harper/multimodal-rag/internal/models"
)

type fakeIngestor struct {
	count int
	err   error
	paths []string
}

func (f *fakeIngestor) Run(_ context.Context, path string) (int, error) {
	f.paths = append(f.paths, path)
	return f.count, f.err
}

type fakeQuerier struct {
	text     string
	sources  models.RetrievalResult
	err      error
	question string
	k        int
}

func (f *fakeQuerier) Answer(_ context.Context, question string, k int) (models.Answer, error) {
	f.question, f.k = question, k
	return models.Answer{Text: f.text, Sources: f.sources}, f.err
}

func (f *fakeQuerier) Summarize(_ context.Context, question string) (models.Answer, error) {
	f.question = question
	return models.Answer{Text: f.text, Sources: f.sources}, f.err
}

type fakeIndex struct {
	err     error
	deletes int
}

func (f *fakeIndex) DeleteCollection(context.Context) error {
	f.deletes++
	return f.err
}

func setup(t *testing.T) (*Handlers, *fakeIngestor, *fakeQuerier, *fakeIndex) {
	t.Helper()
	ing := &fakeIngestor{count: 4}
	q := &fakeQuerier{
		text: "The answer.",
		sources: models.RetrievalResult{{Chunk: models.Chunk{
			Content:  "Body text",
			Metadata: models.Metadata{SourceFile: "guide.md"},
		}}},
	}
	idx := &fakeIndex{}
	server := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(false))
	h := RegisterTools(server, ing, q, idx, logging.Discard())
	return h, ing, q, idx
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("content is %T, want text", res.Content[0])
	}
	return text.Text
}

func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	return out
}

func TestRegisterTools(t *testing.T) {
	server := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(false))
	RegisterTools(server, &fakeIngestor{}, &fakeQuerier{}, &fakeIndex{}, nil)

	tools := server.ListTools()
	for _, name := range []string{"ask_documents", "summarize_documents", "ingest_document", "reset_index", "list_supported_formats"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
	if len(tools) != 5 {
		t.Errorf("registered %d tools, want 5", len(tools))
	}
}

func TestAskDocuments(t *testing.T) {
	h, _, q, _ := setup(t)

	res, err := h.AskDocuments(context.Background(), callRequest("ask_documents", map[string]any{
		"question": "What is in the guide?",
		"k":        float64(3),
	}))
	if err != nil {
		t.Fatalf("AskDocuments() error = %v", err)
	}

	out := resultJSON(t, res)
	if out["answer"] != "The answer." {
		t.Errorf("answer = %v", out["answer"])
	}
	if out["source_count"] != float64(1) {
		t.Errorf("source_count = %v, want 1", out["source_count"])
	}
	if q.question != "What is in the guide?" || q.k != 3 {
		t.Errorf("querier got (%q, %d)", q.question, q.k)
	}
}

func TestAskDocuments_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		qErr    error
		wantMsg string
	}{
		{"missing question", map[string]any{}, nil, "question argument is required"},
		{"blank question", map[string]any{"question": "  "}, nil, "question argument is required"},
		{"pipeline failure", map[string]any{"question": "q"},
			errs.E("retrieve", errs.ErrRetrievalFailure, errors.New("secret detail")), api.MsgRetrieval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, q, _ := setup(t)
			q.err = tt.qErr

			res, err := h.AskDocuments(context.Background(), callRequest("ask_documents", tt.args))
			if err != nil {
				t.Fatalf("AskDocuments() error = %v", err)
			}
			if !res.IsError {
				t.Fatal("expected an error result")
			}
			text := resultText(t, res)
			if !strings.Contains(text, tt.wantMsg) {
				t.Errorf("result = %q, want it to contain %q", text, tt.wantMsg)
			}
			if strings.Contains(text, "secret") {
				t.Errorf("internal detail leaked: %q", text)
			}
		})
	}
}

func TestSummarizeDocuments(t *testing.T) {
	h, _, q, _ := setup(t)

	res, err := h.SummarizeDocuments(context.Background(), callRequest("summarize_documents", nil))
	if err != nil {
		t.Fatalf("SummarizeDocuments() error = %v", err)
	}

	out := resultJSON(t, res)
	if out["summary"] != "The answer." {
		t.Errorf("summary = %v", out["summary"])
	}
	if q.question != "" {
		t.Errorf("question = %q, want empty so the default summary question applies", q.question)
	}
}

func TestIngestDocument(t *testing.T) {
	h, ing, _, _ := setup(t)
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# Notes"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	res, err := h.IngestDocument(context.Background(), callRequest("ingest_document", map[string]any{"path": path}))
	if err != nil {
		t.Fatalf("IngestDocument() error = %v", err)
	}

	out := resultJSON(t, res)
	if out["chunks_indexed"] != float64(4) || out["file_type"] != ".md" || out["filename"] != "notes.md" {
		t.Errorf("result = %v", out)
	}
	if len(ing.paths) != 1 || ing.paths[0] != path {
		t.Errorf("ingestor paths = %v", ing.paths)
	}
}

func TestIngestDocument_Rejects(t *testing.T) {
	dir := t.TempDir()
	zip := filepath.Join(dir, "a.zip")
	if err := os.WriteFile(zip, []byte("PK"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	txt := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(txt, nil, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name    string
		path    string
		ingErr  error
		wantMsg string
	}{
		{"unsupported", zip, nil, "Unsupported file type: .zip"},
		{"missing", filepath.Join(dir, "gone.pdf"), nil, "file not found"},
		{"empty document", txt, errs.E("ingest", errs.ErrEmptyDocument, nil), api.MsgUploadEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ing, _, _ := setup(t)
			ing.err = tt.ingErr

			res, err := h.IngestDocument(context.Background(), callRequest("ingest_document", map[string]any{"path": tt.path}))
			if err != nil {
				t.Fatalf("IngestDocument() error = %v", err)
			}
			if !res.IsError {
				t.Fatal("expected an error result")
			}
			if text := resultText(t, res); !strings.Contains(text, tt.wantMsg) {
				t.Errorf("result = %q, want it to contain %q", text, tt.wantMsg)
			}
		})
	}
}

func TestResetIndex(t *testing.T) {
	h, _, _, idx := setup(t)

	res, err := h.ResetIndex(context.Background(), callRequest("reset_index", nil))
	if err != nil {
		t.Fatalf("ResetIndex() error = %v", err)
	}
	if out := resultJSON(t, res); out["status"] != "success" {
		t.Errorf("status = %v", out["status"])
	}
	if idx.deletes != 1 {
		t.Errorf("deletes = %d, want 1", idx.deletes)
	}

	idx.err = errs.E("delete", errs.ErrVectorStoreUnavailable, errors.New("refused"))
	res, err = h.ResetIndex(context.Background(), callRequest("reset_index", nil))
	if err != nil {
		t.Fatalf("ResetIndex() error = %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), api.MsgVectorStore) {
		t.Errorf("failure result = %+v", res)
	}
}

func TestListSupportedFormats(t *testing.T) {
	h, _, _, _ := setup(t)

	res, err := h.ListSupportedFormats(context.Background(), callRequest("list_supported_formats", nil))
	if err != nil {
		t.Fatalf("ListSupportedFormats() error = %v", err)
	}

	exts, ok := resultJSON(t, res)["extensions"].([]any)
	if !ok || len(exts) != 12 {
		t.Fatalf("extensions = %v, want 12 entries", exts)
	}
	if exts[0] != ".bmp" {
		t.Errorf("first extension = %v, want .bmp", exts[0])
	}
}
