package app

import (
	"fmt"

	"github.com/upb/rag-service/config"
	"github.com/upb/rag-service/internal/rag"
	"github.com/upb/rag-service/services/providers"
	"github.com/upb/rag-service/services/providers/ollama"
	"github.com/upb/rag-service/services/providers/openai"
)

// Embedder is an embedding backend the index can be built with.
type Embedder interface {
	rag.Embedder
	Name() string
	Model() string
}

// NewEmbedder builds the embedding client selected by cfg.Provider.
func NewEmbedder(cfg config.EmbeddingConfig) (Embedder, error) {
	pc := providers.ProviderConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}

	switch cfg.Provider {
	case config.EmbeddingProviderOpenAI, "":
		return openai.NewEmbedder(cfg.Model, pc), nil
	case config.EmbeddingProviderOllama:
		return ollama.NewEmbedder(cfg.Model, pc), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
