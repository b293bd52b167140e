// ABOUTME: Answer generation over chat completions, batch and streaming
// ABOUTME: Normalizes vendor responses into a single GenerationResult shape
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/models"
)

// GenerationTemperature is the sampling temperature for answers
const GenerationTemperature = 0.7

func (c *OpenAIClient) answerRequest(contextText, question string, stream bool) openai.ChatCompletionRequest {
	lang := c.detector.Detect(question)
	return openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(contextText, question, lang),
			},
		},
		Temperature: GenerationTemperature,
		Stream:      stream,
	}
}

func generationError(op string, err error) error {
	if isAuthError(err) {
		return errs.E(op, errs.ErrGenerationUnavailable, err)
	}
	if isRateLimited(err) {
		return errs.E(op, errs.ErrGeneration, fmt.Errorf("%w: %w", errs.ErrRateLimited, err))
	}
	return errs.E(op, errs.ErrGeneration, err)
}

// Generate produces a complete answer. Text is nil when the response carried none.
func (c *OpenAIClient) Generate(ctx context.Context, contextText, question string) (models.GenerationResult, error) {
	if c.client == nil {
		return models.GenerationResult{}, errs.E("generate", errs.ErrGenerationUnavailable, fmt.Errorf("no API key configured"))
	}

	resp, err := c.client.CreateChatCompletion(ctx, c.answerRequest(contextText, question, false))
	if err != nil {
		return models.GenerationResult{}, generationError("generate", err)
	}
	return normalizeResponse(resp), nil
}

// normalizeResponse extracts text from the first choice, falling back to multi-part content
func normalizeResponse(resp openai.ChatCompletionResponse) models.GenerationResult {
	if len(resp.Choices) == 0 {
		return models.GenerationResult{}
	}

	msg := resp.Choices[0].Message
	text := msg.Content
	if text == "" {
		var parts []string
		for _, part := range msg.MultiContent {
			if part.Type == openai.ChatMessagePartTypeText && part.Text != "" {
				parts = append(parts, part.Text)
			}
		}
		text = strings.Join(parts, "")
	}
	if text == "" {
		return models.GenerationResult{}
	}
	return models.GenerationResult{Text: &text}
}

// GenerateStream starts a streaming answer
func (c *OpenAIClient) GenerateStream(ctx context.Context, contextText, question string) (models.FragmentStream, error) {
	if c.client == nil {
		return nil, errs.E("generate stream", errs.ErrGenerationUnavailable, fmt.Errorf("no API key configured"))
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, c.answerRequest(contextText, question, true))
	if err != nil {
		return nil, generationError("generate stream", err)
	}
	return &chatStream{stream: stream}, nil
}

// chatStream adapts a chat completion stream to models.FragmentStream, skipping empty deltas
type chatStream struct {
	stream *openai.ChatCompletionStream
	done   bool
}

func (s *chatStream) Next() (string, bool, error) {
	for !s.done {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			return "", false, nil
		}
		if err != nil {
			s.done = true
			return "", false, generationError("generate stream", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if text := resp.Choices[0].Delta.Content; text != "" {
			return text, true, nil
		}
	}
	return "", false, nil
}

func (s *chatStream) Close() error {
	s.done = true
	return s.stream.Close()
}
