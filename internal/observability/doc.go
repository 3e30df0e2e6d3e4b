// Package observability provides structured logging and metrics
// for the RAG service.
//
// This package implements:
//   - zap logger construction from LOG_LEVEL / LOG_FORMAT
//   - Prometheus collectors for HTTP traffic, completion backend calls
//     and retrieval latency
//
// Components depend on the Metrics interface; NopMetrics is used when
// metrics are disabled.
package observability
