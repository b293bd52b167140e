// ABOUTME: Fake OpenAI-compatible endpoint for tests of code built on the llm client
// ABOUTME: Embeds text by hashing words into buckets and answers chat with a fixed reply
package llmtest

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode"
)

// Server is a running fake endpoint
type Server struct {
	*httptest.Server

	dim    int
	answer string

	mu         sync.Mutex
	embedCalls int
	chatCalls  int
	prompts    []string
}

// NewServer starts a fake endpoint producing dim-sized embeddings and the given answer.
// It is closed when the test ends.
func NewServer(t testing.TB, dim int, answer string) *Server {
	t.Helper()
	s := &Server{dim: dim, answer: answer}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/embeddings", s.handleEmbeddings)
	mux.HandleFunc("POST /v1/chat/completions", s.handleChat)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the value to configure as the client base URL
func (s *Server) BaseURL() string {
	return s.URL + "/v1/"
}

// EmbedCalls returns the number of embedding requests served
func (s *Server) EmbedCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.embedCalls
}

// ChatCalls returns the number of chat requests served
func (s *Server) ChatCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatCalls
}

// Prompts returns the text of every chat prompt received
func (s *Server) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// HashEmbedding maps text to a dim-sized vector of hashed lowercase word counts.
// The last component is always 1 so no vector is zero.
func HashEmbedding(text string, dim int) []float32 {
	vec := make([]float32, dim)
	if dim == 0 {
		return vec
	}
	vec[dim-1] = 1
	if dim == 1 {
		return vec
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[int(h.Sum32()%uint32(dim-1))]++
	}
	return vec
}

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input []string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.embedCalls++
	s.mu.Unlock()

	data := make([]map[string]any, len(req.Input))
	for i, text := range req.Input {
		data[i] = map[string]any{"object": "embedding", "index": i, "embedding": HashEmbedding(text, s.dim)}
	}
	writeJSON(w, map[string]any{"object": "list", "data": data})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stream   bool `json:"stream"`
		Messages []struct {
			Content any `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.chatCalls++
	for _, m := range req.Messages {
		if text, ok := m.Content.(string); ok {
			s.prompts = append(s.prompts, text)
		}
	}
	s.mu.Unlock()

	if !req.Stream {
		writeJSON(w, map[string]any{
			"id":     "chatcmpl-fake",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": s.answer}, "finish_reason": "stop"},
			},
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, fragment := range strings.SplitAfter(s.answer, " ") {
		chunk, _ := json.Marshal(map[string]any{
			"id":      "chatcmpl-fake",
			"object":  "chat.completion.chunk",
			"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": fragment}}},
		})
		fmt.Fprintf(w, "data: %s\n\n", chunk)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
