// Package rag provides the retrieval side of the service.
//
// This package implements:
//   - Loading passages from a SQuAD-shaped question-answering dataset
//   - Building an immutable in-memory index of passage embeddings
//   - Exact top-k search by unnormalised dot product
//
// The index is built once at startup and is safe for concurrent readers;
// it exposes no mutation after construction.
package rag
