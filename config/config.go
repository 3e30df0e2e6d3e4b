package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Embedding provider kinds.
const (
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderOllama = "ollama"
)

// Config represents the complete service configuration
type Config struct {
	Server        ServerConfig
	Completion    CompletionConfig
	Embedding     EmbeddingConfig
	Index         IndexConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// CompletionConfig points at the vLLM OpenAI-compatible completion backend.
type CompletionConfig struct {
	Host         string
	Port         int
	Timeout      time.Duration
	DefaultModel string
}

// EmbeddingConfig selects the server that turns text into vectors.
type EmbeddingConfig struct {
	Provider string
	BaseURL  string // empty selects the provider's own default
	APIKey   string
	Model    string // MODEL_PATH; sent as the model name
	Timeout  time.Duration
}

// IndexConfig controls how the retrieval corpus is loaded.
type IndexConfig struct {
	DataPath     string
	MaxDocuments int
	BatchSize    int
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// .env is optional
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Completion: CompletionConfig{
			Host:         getEnv("VLLM_HOST", "10.233.91.39"),
			Port:         getEnvAsInt("VLLM_PORT", 2345),
			Timeout:      getEnvAsDuration("VLLM_TIMEOUT", 60*time.Second),
			DefaultModel: getEnv("DEFAULT_MODEL", "facebook/opt-6.7b"),
		},
		Embedding: EmbeddingConfig{
			Provider: strings.ToLower(getEnv("EMBEDDING_PROVIDER", EmbeddingProviderOpenAI)),
			BaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
			APIKey:   getEnv("EMBEDDING_API_KEY", ""),
			Model:    getEnv("MODEL_PATH", "/app/models/contriever"),
			Timeout:  getEnvAsDuration("EMBEDDING_TIMEOUT", 60*time.Second),
		},
		Index: IndexConfig{
			DataPath:     getEnv("DATA_PATH", "/app/data/squad.json"),
			MaxDocuments: getEnvAsInt("INDEX_MAX_DOCUMENTS", 10),
			BatchSize:    getEnvAsInt("INDEX_BATCH_SIZE", 16),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	if c.Completion.Host == "" {
		return fmt.Errorf("completion host is required")
	}
	if c.Completion.Port <= 0 || c.Completion.Port > 65535 {
		return fmt.Errorf("completion port %d out of range", c.Completion.Port)
	}
	if c.Completion.Timeout <= 0 {
		return fmt.Errorf("completion timeout must be positive")
	}

	switch c.Embedding.Provider {
	case EmbeddingProviderOpenAI, EmbeddingProviderOllama:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding model path is required")
	}

	if c.Index.DataPath == "" {
		return fmt.Errorf("dataset path is required")
	}
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("index batch size must be positive")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// URL returns the completions endpoint of the backend.
func (c *CompletionConfig) URL() string {
	return fmt.Sprintf("http://%s:%d/v1/completions", c.Host, c.Port)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getPort returns the server port from PORT or SERVER_PORT (default 8000)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 8000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
