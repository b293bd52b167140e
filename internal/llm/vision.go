// ABOUTME: Vision extraction over a multimodal chat model
// ABOUTME: Transcribes text and describes images; failures yield no result, never an error
package llm

import (
	"context"
	"encoding/base64"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/multimodal-rag/internal/loader"
)

const (
	ocrPrompt = "Extract all text from this image. Preserve formatting and structure. " +
		"If there are tables, present them in a structured format."
	detailedCaptionPrompt = "Please describe this image in detail, including any text, charts, graphs, " +
		"diagrams, tables, or visual elements. Include axis labels, data points, and any other " +
		"relevant information that would be useful for understanding the content."
	briefCaptionPrompt = "Please provide a brief description of this image."
)

// Transcribe extracts visible text from an image. Nil means nothing usable was produced.
func (c *OpenAIClient) Transcribe(ctx context.Context, img []byte) *string {
	return c.vision(ctx, "transcribe", img, ocrPrompt, 0.1, 2048)
}

// Describe captions an image, in detail or briefly. Nil means nothing usable was produced.
func (c *OpenAIClient) Describe(ctx context.Context, img []byte, detailed bool) *string {
	prompt := briefCaptionPrompt
	if detailed {
		prompt = detailedCaptionPrompt
	}
	return c.vision(ctx, "describe", img, prompt, 0.4, 1024)
}

func (c *OpenAIClient) vision(ctx context.Context, op string, img []byte, prompt string, temperature float32, maxTokens int) *string {
	if c.client == nil || len(img) == 0 {
		return nil
	}

	dataURL := "data:" + loader.MIMEType(img) + ";base64," + base64.StdEncoding.EncodeToString(img)
	req := openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Warn("vision request failed", "op", op, "error", err)
		return nil
	}

	res := normalizeResponse(resp)
	if !res.HasText() || strings.TrimSpace(*res.Text) == "" {
		return nil
	}
	text := strings.TrimSpace(*res.Text)
	return &text
}
