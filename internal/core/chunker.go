// ABOUTME: Chunker splits segments into size-bounded, overlapping chunks for embedding
// ABOUTME: Prefers paragraph, then line, sentence and word boundaries before cutting characters
package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/harper/multimodal-rag/internal/models"
)

const (
	// DefaultChunkSize is the default maximum chunk length in runes
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the default shared context between consecutive chunks
	DefaultChunkOverlap = 200
)

// separators are tried in order; "" means a hard cut between runes
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " ", ""}

// Chunker handles recursive text chunking
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker. size is the maximum chunk length in runes.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split breaks a segment into chunks that inherit its metadata. Blank segments yield nothing.
func (c *Chunker) Split(seg models.Segment) []models.Chunk {
	texts := c.SplitText(seg.Content)
	chunks := make([]models.Chunk, 0, len(texts))
	for _, text := range texts {
		chunks = append(chunks, models.Chunk{
			ID:       uuid.New().String(),
			Content:  text,
			Metadata: seg.Metadata,
		})
	}
	return chunks
}

// SplitText returns the chunk texts for text, trimmed and non-blank
func (c *Chunker) SplitText(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(trimmed) <= c.size {
		return []string{trimmed}
	}
	return c.split(trimmed, separators)
}

func (c *Chunker) split(text string, seps []string) []string {
	// Pick the first separator present in the text
	sep, rest := "", []string(nil)
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep, rest = s, seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.SplitAfter(text, sep)
	}

	var out, pending []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) <= c.size {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			out = append(out, c.merge(pending)...)
			pending = nil
		}
		out = append(out, c.split(piece, rest)...)
	}
	if len(pending) > 0 {
		out = append(out, c.merge(pending)...)
	}
	return out
}

// merge packs pieces into chunks of at most size runes, carrying up to overlap runes forward
func (c *Chunker) merge(pieces []string) []string {
	var out []string
	var window []string
	total := 0

	emit := func() {
		if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
			out = append(out, chunk)
		}
	}

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > c.size && len(window) > 0 {
			emit()
			for len(window) > 0 && (total > c.overlap || total+n > c.size) {
				total -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n
	}
	if len(window) > 0 {
		emit()
	}
	return out
}
