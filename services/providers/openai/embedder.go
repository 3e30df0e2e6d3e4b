package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/upb/rag-service/services/providers"
)

const (
	defaultBaseURL = "http://localhost:8080/v1"
	defaultTimeout = 60 * time.Second
)

// Embedder calls an OpenAI-compatible /embeddings endpoint. Self-hosted
// servers (text-embeddings-inference, vLLM) are expected to serve the encoder
// with CLS pooling and input truncation enabled.
type Embedder struct {
	client *openai.Client
	model  string
}

// NewEmbedder creates an embedder for model using the given provider config.
func NewEmbedder(model string, config providers.ProviderConfig) *Embedder {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	cfg := openai.DefaultConfig(config.APIKey)
	cfg.BaseURL = config.BaseURL
	cfg.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &Embedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Name returns the provider name
func (e *Embedder) Name() string {
	return "openai"
}

// Model returns the model identifier sent with each request
func (e *Embedder) Model() string {
	return e.model
}

// Embed generates an embedding for a single text
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for texts in one request. The result is
// ordered like the input regardless of the order the server lists them in.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		if d.Index != i {
			return nil, fmt.Errorf("embeddings response: unexpected index %d at position %d", d.Index, i)
		}
		if len(d.Embedding) == 0 {
			return nil, errors.New("embeddings response: empty vector")
		}
		out[i] = d.Embedding
	}
	return out, nil
}
