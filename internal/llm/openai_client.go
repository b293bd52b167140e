// ABOUTME: OpenAI-compatible client shared by the embedder, generator and vision extractor
// ABOUTME: Defaults to Gemini's OpenAI endpoint; any compatible base URL works
package llm

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/multimodal-rag/internal/config"
)

const (
	// DefaultChatModel is the default model for answers and vision
	DefaultChatModel = "gemini-2.0-flash"
	// DefaultEmbeddingModel is the default embedding model
	DefaultEmbeddingModel = "text-embedding-004"
	// DefaultEmbeddingDim is the output size of DefaultEmbeddingModel
	DefaultEmbeddingDim = 768
	// DefaultBatchSize caps the inputs sent in one embedding request
	DefaultBatchSize = 100
)

// ClientConfig holds configuration for the OpenAI-compatible client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	VisionModel    string
	EmbeddingModel string
	EmbeddingDim   int
	BatchSize      int
	Timeout        time.Duration
	HTTPClient     *http.Client
	// Detector picks the answer language; nil uses HeuristicDetector
	Detector LanguageDetector
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		BaseURL:        config.DefaultLLMBaseURL,
		ChatModel:      DefaultChatModel,
		VisionModel:    DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		EmbeddingDim:   DefaultEmbeddingDim,
		BatchSize:      DefaultBatchSize,
		Timeout:        120 * time.Second,
	}
}

// ConfigFrom maps application configuration onto client configuration
func ConfigFrom(cfg *config.Config) *ClientConfig {
	return &ClientConfig{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.LLMBaseURL,
		ChatModel:      cfg.LLMModel,
		VisionModel:    cfg.VisionModel,
		EmbeddingModel: cfg.EmbeddingModel,
		EmbeddingDim:   cfg.EmbeddingDim,
		BatchSize:      cfg.EmbedBatchSize,
		Timeout:        cfg.LLMTimeout,
	}
}

// OpenAIClient wraps the go-openai client. A client built without an API key
// is valid; every call then reports the capability as unavailable.
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	visionModel    string
	embeddingModel string
	embeddingDim   int
	batchSize      int
	detector       LanguageDetector
	logger         *log.Logger
}

// NewOpenAIClient creates a client from cfg. A nil logger uses the package default.
func NewOpenAIClient(cfg *ClientConfig, logger *log.Logger) *OpenAIClient {
	if logger == nil {
		logger = log.Default()
	}

	c := &OpenAIClient{
		chatModel:      cfg.ChatModel,
		visionModel:    cfg.VisionModel,
		embeddingModel: cfg.EmbeddingModel,
		embeddingDim:   cfg.EmbeddingDim,
		batchSize:      cfg.BatchSize,
		detector:       cfg.Detector,
		logger:         logger,
	}
	if c.detector == nil {
		c.detector = HeuristicDetector{}
	}
	if c.visionModel == "" {
		c.visionModel = c.chatModel
	}
	if c.batchSize <= 0 {
		c.batchSize = DefaultBatchSize
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn("no API key configured; embedding, generation and vision are unavailable")
		return c
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	switch {
	case cfg.HTTPClient != nil:
		oc.HTTPClient = cfg.HTTPClient
	case cfg.Timeout > 0:
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	c.client = openai.NewClientWithConfig(oc)
	return c
}

// Available reports whether a credential was configured
func (c *OpenAIClient) Available() bool {
	return c.client != nil
}

// isRateLimited reports whether err is a quota or rate limit refusal
func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// isAuthError reports whether err is a rejected credential
func isAuthError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}
