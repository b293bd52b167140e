// ABOUTME: Centralized configuration for the multimodal RAG service
// ABOUTME: Loads defaults, an optional YAML file, then environment variables, with validation
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Vector backends
const (
	BackendQdrant   = "qdrant"
	BackendPGVector = "pgvector"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// DefaultLLMBaseURL is the OpenAI-compatible Gemini endpoint
const DefaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Config holds all configuration for the RAG service
type Config struct {
	// Model provider settings
	APIKey          string        `yaml:"api_key"`
	LLMBaseURL      string        `yaml:"llm_base_url"`
	LLMModel        string        `yaml:"llm_model"`
	VisionModel     string        `yaml:"vision_model"`
	EmbeddingModel  string        `yaml:"embedding_model"`
	EmbeddingDim    int           `yaml:"embedding_dim"`
	EmbedBatchSize  int           `yaml:"embed_batch_size"`
	EmbedMaxRetries int           `yaml:"embed_max_retries"`
	EmbedRetryDelay time.Duration `yaml:"embed_retry_delay"`
	LLMTimeout      time.Duration `yaml:"llm_timeout"`

	// Vector store settings
	VectorBackend  string `yaml:"vector_backend"`
	QdrantURL      string `yaml:"qdrant_url"`
	QdrantGRPCPort int    `yaml:"qdrant_grpc_port"`
	QdrantAPIKey   string `yaml:"qdrant_api_key"`
	CollectionName string `yaml:"collection"`
	DatabaseURL    string `yaml:"database_url"`
	SQLitePath     string `yaml:"sqlite_path"`

	// Pipeline settings
	ChunkSize         int  `yaml:"chunk_size"`
	ChunkOverlap      int  `yaml:"chunk_overlap"`
	DefaultK          int  `yaml:"default_k"`
	VisionConcurrency int  `yaml:"vision_concurrency"`
	DetailedCaptions  bool `yaml:"detailed_captions"`

	// HTTP settings
	UploadDir      string        `yaml:"upload_dir"`
	MaxFileSize    int64         `yaml:"max_file_size"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	HTTPAddr       string        `yaml:"http_addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LLMBaseURL:        DefaultLLMBaseURL,
		LLMModel:          "gemini-2.0-flash",
		VisionModel:       "gemini-2.0-flash",
		EmbeddingModel:    "text-embedding-004",
		EmbeddingDim:      768,
		EmbedBatchSize:    100,
		EmbedMaxRetries:   2,
		EmbedRetryDelay:   time.Second,
		LLMTimeout:        120 * time.Second,
		VectorBackend:     BackendQdrant,
		QdrantURL:         "http://localhost:6333",
		CollectionName:    "multimodal_rag",
		ChunkSize:         1000,
		ChunkOverlap:      200,
		DefaultK:          5,
		VisionConcurrency: 2,
		DetailedCaptions:  true,
		UploadDir:         "uploads",
		MaxFileSize:       50 * 1024 * 1024,
		AllowedOrigins:    []string{"*"},
		HTTPAddr:          ":8000",
		RequestTimeout:    300 * time.Second,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load reads configuration from RAG_CONFIG (if set) and environment variables
func Load() (*Config, error) {
	return LoadFile(os.Getenv("RAG_CONFIG"))
}

// LoadFile reads configuration from the given YAML file (empty path skips it),
// then applies environment overrides
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.APIKey = getEnv("GOOGLE_API_KEY", getEnv("OPENAI_API_KEY", c.APIKey))
	c.LLMBaseURL = getEnv("LLM_BASE_URL", c.LLMBaseURL)
	c.LLMModel = getEnv("LLM_MODEL", c.LLMModel)
	c.VisionModel = getEnv("VISION_MODEL", c.VisionModel)
	c.EmbeddingModel = getEnv("EMBEDDING_MODEL", c.EmbeddingModel)
	c.EmbeddingDim = getEnvInt("EMBEDDING_DIM", c.EmbeddingDim)
	c.EmbedBatchSize = getEnvInt("EMBED_BATCH_SIZE", c.EmbedBatchSize)
	c.EmbedMaxRetries = getEnvInt("EMBED_MAX_RETRIES", c.EmbedMaxRetries)
	c.EmbedRetryDelay = getEnvDuration("EMBED_RETRY_DELAY", c.EmbedRetryDelay)
	c.LLMTimeout = getEnvDuration("LLM_TIMEOUT", c.LLMTimeout)

	c.VectorBackend = strings.ToLower(getEnv("VECTOR_BACKEND", c.VectorBackend))
	c.QdrantURL = getEnv("QDRANT_URL", c.QdrantURL)
	c.QdrantGRPCPort = getEnvInt("QDRANT_GRPC_PORT", c.QdrantGRPCPort)
	c.QdrantAPIKey = getEnv("QDRANT_API_KEY", c.QdrantAPIKey)
	c.CollectionName = getEnv("QDRANT_COLLECTION", c.CollectionName)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.ChunkSize = getEnvInt("CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", c.ChunkOverlap)
	c.DefaultK = getEnvInt("DEFAULT_K", c.DefaultK)
	c.VisionConcurrency = getEnvInt("VISION_CONCURRENCY", c.VisionConcurrency)
	c.DetailedCaptions = getEnvBool("DETAILED_CAPTIONS", c.DetailedCaptions)

	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.MaxFileSize = getEnvInt64("MAX_FILE_SIZE", c.MaxFileSize)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be 0 to CHUNK_SIZE-1, got %d", c.ChunkOverlap)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.EmbeddingDim)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("EMBED_BATCH_SIZE must be positive, got %d", c.EmbedBatchSize)
	}
	if c.EmbedMaxRetries < 0 || c.EmbedMaxRetries > 10 {
		return fmt.Errorf("EMBED_MAX_RETRIES must be 0-10, got %d", c.EmbedMaxRetries)
	}
	if c.DefaultK <= 0 {
		return fmt.Errorf("DEFAULT_K must be positive, got %d", c.DefaultK)
	}
	if c.VisionConcurrency < 1 {
		return fmt.Errorf("VISION_CONCURRENCY must be at least 1, got %d", c.VisionConcurrency)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}
	switch c.VectorBackend {
	case BackendQdrant, BackendSQLite, BackendMemory:
	case BackendPGVector:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the pgvector backend")
		}
	default:
		return fmt.Errorf("VECTOR_BACKEND must be one of qdrant, pgvector, sqlite, memory; got %q", c.VectorBackend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// HasAPIKey reports whether a model provider credential is configured
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// QdrantEndpoint splits QDRANT_URL into the host, gRPC port and TLS flag used by the Qdrant client.
// The gRPC port defaults to the REST port plus one.
func (c *Config) QdrantEndpoint() (host string, port int, useTLS bool, err error) {
	raw := c.QdrantURL
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to parse QDRANT_URL: %w", err)
	}

	host = u.Hostname()
	if host == "" {
		return "", 0, false, fmt.Errorf("QDRANT_URL has no host: %q", c.QdrantURL)
	}
	useTLS = u.Scheme == "https"

	if c.QdrantGRPCPort > 0 {
		return host, c.QdrantGRPCPort, useTLS, nil
	}

	restPort := 6333
	if p := u.Port(); p != "" {
		restPort, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port in QDRANT_URL: %w", err)
		}
	}
	return host, restPort + 1, useTLS, nil
}

// QdrantAddr returns the host:port of the Qdrant gRPC endpoint
func (c *Config) QdrantAddr() string {
	host, port, _, err := c.QdrantEndpoint()
	if err != nil {
		return c.QdrantURL
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
