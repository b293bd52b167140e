// ABOUTME: HTTP handlers for the RAG endpoints
// ABOUTME: Ask supports a streamed JSON body whose answer field is written fragment by fragment
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/harper/multimodal-rag/internal/loader"
	"github.com/harper/multimodal-rag/internal/models"
	"github.com/harper/multimodal-rag/internal/uploads"
)

// multipartOverhead is the allowance for multipart framing on top of the file size limit
const multipartOverhead = 1 << 20

// streamErrorText replaces the rest of a streamed answer when generation fails midway
const streamErrorText = "Error in streaming response"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "healthy", Service: ServiceName})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.uploads.MaxSize(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusBadRequest, s.tooLargeMessage())
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	name := uploads.CleanName(header.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !loader.IsSupported(ext) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type: %s. Supported: %s",
			ext, strings.Join(loader.SupportedExtensions(), ", ")))
		return
	}

	path, stored, err := s.uploads.Save(name, file)
	if err != nil {
		if errors.Is(err, uploads.ErrTooLarge) {
			writeError(w, http.StatusBadRequest, s.tooLargeMessage())
			return
		}
		s.logger.Error("failed to save upload", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, IngestMessage(err))
		return
	}
	s.logger.Info("file saved", "path", path)

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	count, err := s.ingestor.Run(ctx, path)
	if err != nil {
		s.logFailure("failed to index upload", err, "file", stored)
		if rmErr := s.uploads.Remove(path); rmErr != nil {
			s.logger.Warn("failed to remove upload after indexing failure", "path", path, "error", rmErr)
		}
		writeError(w, StatusCode(err), IngestMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Status:        "success",
		Message:       "File uploaded and indexed successfully",
		Filename:      stored,
		ChunksIndexed: count,
		FileType:      ext,
	})
}

func (s *Server) tooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum size: %.1fMB", float64(s.uploads.MaxSize())/(1024*1024))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	req, err := parseAskRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, requestMessage(err))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, MsgEmptyQuestion)
		return
	}

	k := 0
	if req.K != nil {
		k = *req.K
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	if req.Stream {
		ans, err := s.querier.AnswerStream(ctx, req.Question, k)
		if err != nil {
			s.logFailure("failed to answer question", err)
			writeError(w, StatusCode(err), UserMessage(err))
			return
		}
		s.writeStream(w, ans)
		return
	}

	ans, err := s.querier.Answer(ctx, req.Question, k)
	if err != nil {
		s.logFailure("failed to answer question", err)
		writeError(w, StatusCode(err), UserMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Answer:      ans.Text,
		SourceCount: len(ans.Sources),
		Sources:     BuildSources(ans.Sources),
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	req, err := parseAskRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, requestMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	ans, err := s.querier.Summarize(ctx, req.Question)
	if err != nil {
		s.logFailure("failed to summarize", err)
		writeError(w, StatusCode(err), UserMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, SummaryResponse{
		Summary:     ans.Text,
		SourceCount: len(ans.Sources),
		Sources:     BuildSources(ans.Sources),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	if err := s.index.DeleteCollection(ctx); err != nil {
		s.logFailure("failed to delete collection", err)
		writeError(w, http.StatusInternalServerError, "Error resetting database: "+UserMessage(err))
		return
	}

	removed, err := s.uploads.Reset()
	if err != nil {
		s.logger.Error("failed to clear uploads", "error", err)
		writeError(w, http.StatusInternalServerError, "Error resetting database: failed to clear uploads")
		return
	}
	s.logger.Info("index reset", "uploads_removed", removed)

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Vector database and uploads reset successfully",
	})
}

var errInvalidBody = errors.New("invalid request body")

// paramError reports a query parameter that could not be parsed
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid value for %s: %q", e.name, e.value)
}

// requestMessage renders a request parsing failure for the client
func requestMessage(err error) string {
	var pe *paramError
	if errors.As(err, &pe) {
		return fmt.Sprintf("Invalid value for %s: %q", pe.name, pe.value)
	}
	return "Invalid request body"
}

// parseAskRequest merges query parameters with an optional JSON body.
// Body fields take precedence; stream is on if either source enables it.
func parseAskRequest(r *http.Request) (AskRequest, error) {
	var req AskRequest
	q := r.URL.Query()

	req.Question = q.Get("question")
	if raw := q.Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			return req, &paramError{name: "k", value: raw}
		}
		req.K = &k
	}
	if raw := q.Get("stream"); raw != "" {
		stream, err := strconv.ParseBool(raw)
		if err != nil {
			return req, &paramError{name: "stream", value: raw}
		}
		req.Stream = stream
	}

	if r.Method != http.MethodPost || r.Body == nil {
		return req, nil
	}

	var body AskRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, errInvalidBody
	}
	if body.Question != "" {
		req.Question = body.Question
	}
	if body.K != nil {
		req.K = body.K
	}
	req.Stream = req.Stream || body.Stream
	return req, nil
}

// writeStream emits {"answer": "...", "source_count": N, "sources": [...]} with the
// answer text written and flushed as each fragment arrives
func (s *Server) writeStream(w http.ResponseWriter, ans models.StreamingAnswer) {
	defer ans.Stream.Close()

	sources, err := json.Marshal(BuildSources(ans.Sources))
	if err != nil {
		s.logger.Error("failed to encode sources", "error", err)
		writeError(w, http.StatusInternalServerError, MsgGeneric)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	io.WriteString(w, `{"answer": "`)
	for {
		fragment, ok, err := ans.Stream.Next()
		if err != nil {
			s.logger.Error("error in streaming", "error", err)
			io.WriteString(w, escapeJSON(streamErrorText))
			break
		}
		if !ok {
			break
		}
		if fragment == "" {
			continue
		}
		if _, err := io.WriteString(w, escapeJSON(fragment)); err != nil {
			s.logger.Warn("client went away during stream", "error", err)
			return
		}
		_ = rc.Flush()
	}
	fmt.Fprintf(w, `", "source_count": %d, "sources": %s}`, len(ans.Sources), sources)
	_ = rc.Flush()
}

// escapeJSON returns s encoded as the inside of a JSON string literal
func escapeJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return string(out[1 : len(out)-1])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Detail: msg})
}
