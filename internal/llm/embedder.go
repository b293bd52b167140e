// ABOUTME: Embedding provider over the OpenAI-compatible embeddings endpoint
// ABOUTME: Batches inputs, restores response order and validates vector dimensions
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/multimodal-rag/internal/errs"
)

// Dimension returns the length of vectors this embedder produces
func (c *OpenAIClient) Dimension() int {
	return c.embeddingDim
}

// Embed returns the embedding of a single text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in order. The result has one vector per input.
// Failures are not retried here; callers decide on retry policy.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c.client == nil {
		return nil, errs.E("embed", errs.ErrCapabilityUnavailable, fmt.Errorf("no API key configured"))
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		vectors, err := c.embedRequest(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}

	c.logger.Debug("embedded texts", "count", len(texts), "model", c.embeddingModel)
	return out, nil
}

func (c *OpenAIClient) embedRequest(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	}
	// Only the text-embedding-3 family accepts a requested size
	if strings.HasPrefix(c.embeddingModel, "text-embedding-3") {
		req.Dimensions = c.embeddingDim
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		if isAuthError(err) {
			return nil, errs.E("embed", errs.ErrCapabilityUnavailable, err)
		}
		return nil, errs.E("embed", errs.ErrEmbedding, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, errs.E("embed", errs.ErrEmbedding,
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		if c.embeddingDim > 0 && len(d.Embedding) != c.embeddingDim {
			return nil, errs.E("embed", errs.ErrEmbedding,
				fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(d.Embedding), c.embeddingDim))
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
