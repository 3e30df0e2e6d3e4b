package rag

import "context"

// Embedder generates vector embeddings for text.
//
// Implementations must be deterministic for a fixed model and input, truncate
// over-long input instead of failing, and return one vector per input text in
// input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Document is one retrievable passage.
type Document struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ScoredDocument is a search hit.
type ScoredDocument struct {
	Document
	Score float64 `json:"score"`
}

// BuildOptions configures index construction.
type BuildOptions struct {
	// BatchSize is the number of documents sent per embedding call
	BatchSize int

	// Progress, if set, is called after each batch with the number of
	// documents embedded so far.
	Progress func(done, total int)
}

// DefaultBatchSize is used when BuildOptions.BatchSize is not positive.
const DefaultBatchSize = 16

// DefaultMaxDocuments caps how many passages are indexed from a dataset.
const DefaultMaxDocuments = 10
