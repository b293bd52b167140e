// ABOUTME: Querier answers questions by retrieving relevant chunks and prompting the generator
// ABOUTME: Supports complete answers, streamed answers and document summaries
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/models"
)

const (
	// NoResultsAnswer is returned when retrieval finds nothing
	NoResultsAnswer = "I couldn't find any relevant information in the uploaded documents to answer your question."
	// EmptyAnswerFallback replaces a blank generated answer
	EmptyAnswerFallback = "I couldn't generate a proper answer. Please try rephrasing your question or check if the documents contain relevant information."
	// DefaultSummaryQuestion is used when a summary is requested without a question
	DefaultSummaryQuestion = "Tóm tắt nội dung chính của tài liệu này một cách chi tiết và đầy đủ."
	// SummaryK is the number of chunks retrieved for a summary
	SummaryK = 10

	contextSeparator = "\n\n---\n\n"
)

// Querier answers questions over the indexed collection
type Querier struct {
	embedder  Embedder
	store     VectorStore
	generator Generator
	defaultK  int
	logger    *log.Logger
}

// NewQuerier creates a Querier. defaultK applies when a caller passes k <= 0.
func NewQuerier(embedder Embedder, store VectorStore, generator Generator, defaultK int, logger *log.Logger) *Querier {
	if logger == nil {
		logger = log.Default()
	}
	if defaultK <= 0 {
		defaultK = 5
	}
	return &Querier{
		embedder:  embedder,
		store:     store,
		generator: generator,
		defaultK:  defaultK,
		logger:    logger,
	}
}

// Answer retrieves up to k chunks and generates a complete answer
func (q *Querier) Answer(ctx context.Context, question string, k int) (models.Answer, error) {
	sources, err := q.retrieve(ctx, question, k)
	if err != nil {
		return models.Answer{}, err
	}
	if len(sources) == 0 {
		return models.Answer{Text: NoResultsAnswer, Sources: sources}, nil
	}

	res, err := q.generator.Generate(ctx, BuildContext(sources.Chunks()), question)
	if err != nil {
		return models.Answer{}, err
	}

	var text string
	switch {
	case res.Text == nil:
		text = models.FallbackAnswer
	case !res.HasText():
		text = EmptyAnswerFallback
	default:
		text = strings.TrimSpace(*res.Text)
	}
	return models.Answer{Text: text, Sources: sources}, nil
}

// AnswerStream retrieves up to k chunks and starts a streamed answer.
// With no retrieved chunks the stream carries the no-results answer as one fragment.
func (q *Querier) AnswerStream(ctx context.Context, question string, k int) (models.StreamingAnswer, error) {
	sources, err := q.retrieve(ctx, question, k)
	if err != nil {
		return models.StreamingAnswer{}, err
	}
	if len(sources) == 0 {
		return models.StreamingAnswer{Stream: models.NewStaticStream(NoResultsAnswer), Sources: sources}, nil
	}

	stream, err := q.generator.GenerateStream(ctx, BuildContext(sources.Chunks()), question)
	if err != nil {
		return models.StreamingAnswer{}, err
	}
	return models.StreamingAnswer{Stream: stream, Sources: sources}, nil
}

// Summarize answers a summary question over the top SummaryK chunks.
// A blank question uses DefaultSummaryQuestion.
func (q *Querier) Summarize(ctx context.Context, question string) (models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		question = DefaultSummaryQuestion
	}
	return q.Answer(ctx, question, SummaryK)
}

func (q *Querier) retrieve(ctx context.Context, question string, k int) (models.RetrievalResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errs.E("query", errs.ErrInvalidQuestion, errors.New("question cannot be empty"))
	}
	if k <= 0 {
		k = q.defaultK
	}

	vector, err := q.embedder.Embed(ctx, question)
	if err != nil {
		if errors.Is(err, errs.ErrCapabilityUnavailable) {
			return nil, err
		}
		return nil, errs.E("retrieve", errs.ErrRetrievalFailure, fmt.Errorf("failed to embed question: %w", err))
	}

	results, err := q.store.Search(ctx, vector, k)
	if err != nil {
		return nil, errs.E("retrieve", errs.ErrRetrievalFailure, fmt.Errorf("failed to search collection: %w", err))
	}

	q.logger.Debug("retrieved chunks", "k", k, "found", len(results))
	return results, nil
}

// BuildContext renders retrieved chunks as numbered, attributed sources for the prompt
func BuildContext(chunks []models.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, SourceLabel(c.Metadata), c.Content)
	}
	return strings.Join(parts, contextSeparator)
}

// SourceLabel names a chunk's origin: file plus page or slide when known
func SourceLabel(m models.Metadata) string {
	name := m.SourceFile
	if name == "" {
		name = "Unknown"
	}
	switch {
	case m.Page != nil:
		return fmt.Sprintf("%s (Page %d)", name, *m.Page)
	case m.SlideNumber != nil:
		return fmt.Sprintf("%s (Slide %d)", name, *m.SlideNumber)
	default:
		return name
	}
}
