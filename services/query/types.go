package query

import (
	"context"
	"encoding/json"
)

// Request defaults applied when a body omits a field.
const (
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.7
	DefaultModel       = "facebook/opt-6.7b"
	DefaultTopK        = 3
)

// Retriever returns the texts of the k documents most similar to query,
// best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Request is a fully defaulted completion request.
type Request struct {
	Query       string
	MaxTokens   int
	Temperature float64
	Model       string
}

// RAGRequest adds the number of contexts to retrieve.
type RAGRequest struct {
	Request
	TopK int
}

// RAGResult is the body of a successful /rag call. LLMResponse is the
// backend's JSON, unmodified.
type RAGResult struct {
	LLMResponse json.RawMessage `json:"llm_response"`
	Contexts    []string        `json:"contexts"`
	Query       string          `json:"query"`
}
