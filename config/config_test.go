package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name:    "default configuration",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8000, cfg.Server.Port)
				assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, "10.233.91.39", cfg.Completion.Host)
				assert.Equal(t, 2345, cfg.Completion.Port)
				assert.Equal(t, 60*time.Second, cfg.Completion.Timeout)
				assert.Equal(t, "facebook/opt-6.7b", cfg.Completion.DefaultModel)
				assert.Equal(t, EmbeddingProviderOpenAI, cfg.Embedding.Provider)
				assert.Empty(t, cfg.Embedding.BaseURL)
				assert.Equal(t, "/app/models/contriever", cfg.Embedding.Model)
				assert.Equal(t, "/app/data/squad.json", cfg.Index.DataPath)
				assert.Equal(t, 10, cfg.Index.MaxDocuments)
				assert.Equal(t, 16, cfg.Index.BatchSize)
				assert.True(t, cfg.Observability.MetricsEnabled)
			},
		},
		{
			name: "completion backend overrides",
			envVars: map[string]string{
				"VLLM_HOST":     "vllm.internal",
				"VLLM_PORT":     "8001",
				"VLLM_TIMEOUT":  "5s",
				"DEFAULT_MODEL": "meta-llama/Llama-3-8B",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://vllm.internal:8001/v1/completions", cfg.Completion.URL())
				assert.Equal(t, 5*time.Second, cfg.Completion.Timeout)
				assert.Equal(t, "meta-llama/Llama-3-8B", cfg.Completion.DefaultModel)
			},
		},
		{
			name: "ollama embeddings",
			envVars: map[string]string{
				"EMBEDDING_PROVIDER": "OLLAMA",
				"EMBEDDING_BASE_URL": "http://ollama:11434",
				"MODEL_PATH":         "nomic-embed-text",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, EmbeddingProviderOllama, cfg.Embedding.Provider)
				assert.Equal(t, "http://ollama:11434", cfg.Embedding.BaseURL)
				assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
			},
		},
		{
			name: "index and observability",
			envVars: map[string]string{
				"DATA_PATH":           "/tmp/squad.json",
				"INDEX_MAX_DOCUMENTS": "0",
				"INDEX_BATCH_SIZE":    "32",
				"LOG_LEVEL":           "debug",
				"LOG_FORMAT":          "console",
				"METRICS_ENABLED":     "false",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/tmp/squad.json", cfg.Index.DataPath)
				assert.Equal(t, 0, cfg.Index.MaxDocuments)
				assert.Equal(t, 32, cfg.Index.BatchSize)
				assert.Equal(t, "debug", cfg.Observability.LogLevel)
				assert.Equal(t, "console", cfg.Observability.LogFormat)
				assert.False(t, cfg.Observability.MetricsEnabled)
			},
		},
		{
			name:    "PORT takes precedence over SERVER_PORT",
			envVars: map[string]string{"PORT": "9443", "SERVER_PORT": "9000"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name:    "SERVER_PORT when PORT not set",
			envVars: map[string]string{"SERVER_PORT": "9000"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
			},
		},
		{
			name:    "unknown embedding provider",
			envVars: map[string]string{"EMBEDDING_PROVIDER": "bert"},
			wantErr: true,
		},
		{
			name:    "zero batch size",
			envVars: map[string]string{"INDEX_BATCH_SIZE": "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Server:      ServerConfig{Host: "0.0.0.0", Port: 8000},
		Completion:  CompletionConfig{Host: "localhost", Port: 2345, Timeout: time.Minute},
		Embedding:   EmbeddingConfig{Provider: EmbeddingProviderOpenAI, Model: "contriever"},
		Index:       IndexConfig{DataPath: "squad.json", BatchSize: 16},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad server port", func(c *Config) { c.Server.Port = 70000 }, "server port"},
		{"missing completion host", func(c *Config) { c.Completion.Host = "" }, "completion host is required"},
		{"bad completion port", func(c *Config) { c.Completion.Port = 0 }, "completion port"},
		{"zero completion timeout", func(c *Config) { c.Completion.Timeout = 0 }, "completion timeout"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "tfidf" }, "unknown embedding provider"},
		{"missing model", func(c *Config) { c.Embedding.Model = "" }, "model path is required"},
		{"missing dataset", func(c *Config) { c.Index.DataPath = "" }, "dataset path is required"},
		{"missing log level", func(c *Config) { c.Observability.LogLevel = "" }, "log level is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_Environment(t *testing.T) {
	tests := []struct {
		environment string
		production  bool
		development bool
	}{
		{"production", true, false},
		{"prod", true, false},
		{"development", false, true},
		{"dev", false, true},
		{"staging", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.production, cfg.IsProduction())
			assert.Equal(t, tt.development, cfg.IsDevelopment())
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "0.0.0.0", Port: 8000}
	assert.Equal(t, "0.0.0.0:8000", cfg.Address())
}

func TestEnvHelpers(t *testing.T) {
	os.Clearenv()
	os.Setenv("TEST_INT", "42")
	os.Setenv("TEST_BAD_INT", "forty-two")
	os.Setenv("TEST_BOOL", "false")
	os.Setenv("TEST_DURATION", "30s")
	os.Setenv("TEST_BAD_DURATION", "soon")

	assert.Equal(t, 42, getEnvAsInt("TEST_INT", 10))
	assert.Equal(t, 10, getEnvAsInt("TEST_BAD_INT", 10))
	assert.Equal(t, 10, getEnvAsInt("TEST_MISSING", 10))
	assert.False(t, getEnvAsBool("TEST_BOOL", true))
	assert.True(t, getEnvAsBool("TEST_MISSING", true))
	assert.Equal(t, 30*time.Second, getEnvAsDuration("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, getEnvAsDuration("TEST_BAD_DURATION", time.Second))
	assert.Equal(t, "fallback", getEnv("TEST_MISSING", "fallback"))
}
