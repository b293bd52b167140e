// ABOUTME: Request and response bodies for the HTTP API
// ABOUTME: Source previews are built from retrieved chunks
package api

import (
	"unicode/utf8"

	"github.com/harper/multimodal-rag/internal/models"
)

// PreviewLength is the number of characters of chunk content shown in a source preview
const PreviewLength = 200

// AskRequest is the JSON body accepted by /ask and /summarize
type AskRequest struct {
	Question string `json:"question"`
	K        *int   `json:"k,omitempty"`
	Stream   bool   `json:"stream,omitempty"`
}

// Source describes one retrieved chunk in a response
type Source struct {
	Index       int     `json:"index"`
	SourceFile  string  `json:"source_file"`
	Page        *int    `json:"page"`
	SlideNumber *int    `json:"slide_number"`
	ContentType *string `json:"content_type"`
	Preview     string  `json:"preview"`
}

// AskResponse is the non-streaming /ask response
type AskResponse struct {
	Answer      string   `json:"answer"`
	SourceCount int      `json:"source_count"`
	Sources     []Source `json:"sources"`
}

// SummaryResponse is the /summarize response
type SummaryResponse struct {
	Summary     string   `json:"summary"`
	SourceCount int      `json:"source_count"`
	Sources     []Source `json:"sources"`
}

// UploadResponse is the /upload response
type UploadResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	Filename      string `json:"filename"`
	ChunksIndexed int    `json:"chunks_indexed"`
	FileType      string `json:"file_type"`
}

// StatusResponse is returned by /health and /reset
type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse carries a user-facing error message
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// BuildSources converts retrieval results into response sources, numbered from 1
func BuildSources(results models.RetrievalResult) []Source {
	sources := make([]Source, 0, len(results))
	for i, r := range results {
		meta := r.Chunk.Metadata
		src := Source{
			Index:       i + 1,
			SourceFile:  meta.SourceFile,
			Page:        meta.Page,
			SlideNumber: meta.SlideNumber,
			Preview:     Preview(r.Chunk.Content),
		}
		if src.SourceFile == "" {
			src.SourceFile = "Unknown"
		}
		if meta.ContentType != models.ContentTypeText {
			ct := string(meta.ContentType)
			src.ContentType = &ct
		}
		sources = append(sources, src)
	}
	return sources
}

// Preview truncates content to PreviewLength characters, marking truncation with "..."
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLength]) + "..."
}
