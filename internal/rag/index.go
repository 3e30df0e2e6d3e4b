package rag

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrDimensionMismatch is returned when vectors of different lengths meet.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Index holds documents and their embeddings, row i of the matrix belonging
// to document i. It is immutable once built.
type Index struct {
	docs       []Document
	embeddings [][]float32
	dim        int
	embedder   Embedder
}

// Build embeds docs in batches, preserving input order, and returns the index.
func Build(ctx context.Context, docs []Document, embedder Embedder, opts BuildOptions) (*Index, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	embeddings := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))

		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text)
		}

		batch, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed documents %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embed documents %d-%d: got %d vectors for %d texts", start, end-1, len(batch), len(texts))
		}
		embeddings = append(embeddings, batch...)

		if opts.Progress != nil {
			opts.Progress(len(embeddings), len(docs))
		}
	}

	return NewIndex(docs, embeddings, embedder)
}

// NewIndex assembles an index from precomputed embeddings. The slices are
// copied so later changes by the caller cannot affect the index.
func NewIndex(docs []Document, embeddings [][]float32, embedder Embedder) (*Index, error) {
	if len(docs) != len(embeddings) {
		return nil, fmt.Errorf("%d documents but %d embeddings", len(docs), len(embeddings))
	}

	idx := &Index{
		docs:       make([]Document, len(docs)),
		embeddings: make([][]float32, len(embeddings)),
		embedder:   embedder,
	}
	copy(idx.docs, docs)

	for i, vec := range embeddings {
		if i == 0 {
			idx.dim = len(vec)
		}
		if len(vec) == 0 || len(vec) != idx.dim {
			return nil, fmt.Errorf("document %d: %w (got %d, want %d)", i, ErrDimensionMismatch, len(vec), idx.dim)
		}
		idx.embeddings[i] = append([]float32(nil), vec...)
	}

	return idx, nil
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.docs)
}

// Dimension returns the embedding dimension, or 0 for an empty index.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Documents returns a copy of the indexed documents in insertion order.
func (idx *Index) Documents() []Document {
	out := make([]Document, len(idx.docs))
	copy(out, idx.docs)
	return out
}

// Search embeds query and returns up to k documents ranked by dot product,
// highest first. Equal scores keep insertion order. An empty index or k <= 0
// yields an empty result without calling the embedder.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]ScoredDocument, error) {
	if len(idx.docs) == 0 || k <= 0 {
		return []ScoredDocument{}, nil
	}

	q, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return idx.SearchVector(q, k)
}

// SearchVector ranks documents against an already computed query embedding.
func (idx *Index) SearchVector(query []float32, k int) ([]ScoredDocument, error) {
	if len(idx.docs) == 0 || k <= 0 {
		return []ScoredDocument{}, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query: %w (got %d, want %d)", ErrDimensionMismatch, len(query), idx.dim)
	}

	results := make([]ScoredDocument, len(idx.docs))
	for i, doc := range idx.docs {
		results[i] = ScoredDocument{
			Document: doc,
			Score:    Dot(idx.embeddings[i], query),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Retrieve returns the texts of the top-k documents for query.
func (idx *Index) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	hits, err := idx.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	return texts, nil
}

// Dot returns the inner product of a and b. Vectors are not normalised, so
// the score is magnitude sensitive. a and b must have equal length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
