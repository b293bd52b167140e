// ABOUTME: Retrieval results and generated answers
// ABOUTME: RetrievalResult is ordered by descending similarity
package models

import "strings"

// ScoredChunk pairs a retrieved chunk with its similarity score
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievalResult is the ranked output of a similarity search
type RetrievalResult []ScoredChunk

// Chunks returns the chunks in retrieval order
func (r RetrievalResult) Chunks() []Chunk {
	out := make([]Chunk, len(r))
	for i, sc := range r {
		out[i] = sc.Chunk
	}
	return out
}

// FallbackAnswer replaces a generation that carried no text at all
const FallbackAnswer = "I apologize, but I couldn't generate a response. Please try again."

// GenerationResult is the normalized output of a batch generation call.
// Text is nil when the model response carried no extractable text.
type GenerationResult struct {
	Text *string
}

// HasText reports whether the result carries non-blank text
func (g GenerationResult) HasText() bool {
	return g.Text != nil && strings.TrimSpace(*g.Text) != ""
}

// Answer is a complete generated answer with its sources
type Answer struct {
	Text    string          `json:"answer"`
	Sources RetrievalResult `json:"sources"`
}

// FragmentStream yields answer text incrementally. It is finite and cannot be restarted.
// Next returns ok=false once the stream is exhausted. Callers abandon a stream by calling Close.
type FragmentStream interface {
	Next() (fragment string, ok bool, err error)
	Close() error
}

// StaticStream is a FragmentStream over fixed fragments
type StaticStream struct {
	fragments []string
	pos       int
}

// NewStaticStream returns a stream that yields the given fragments in order
func NewStaticStream(fragments ...string) *StaticStream {
	return &StaticStream{fragments: fragments}
}

func (s *StaticStream) Next() (string, bool, error) {
	if s.pos >= len(s.fragments) {
		return "", false, nil
	}
	f := s.fragments[s.pos]
	s.pos++
	return f, true, nil
}

func (s *StaticStream) Close() error {
	s.pos = len(s.fragments)
	return nil
}

// StreamingAnswer is an answer whose text arrives as a stream. Sources are known up front.
type StreamingAnswer struct {
	Stream  FragmentStream
	Sources RetrievalResult
}

// Collect drains a stream into a single string and closes it
func Collect(s FragmentStream) (string, error) {
	defer s.Close()
	var sb strings.Builder
	for {
		frag, ok, err := s.Next()
		if err != nil {
			return sb.String(), err
		}
		if !ok {
			return sb.String(), nil
		}
		sb.WriteString(frag)
	}
}
