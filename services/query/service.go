package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/upb/rag-service/internal/observability"
	"github.com/upb/rag-service/services"
	"github.com/upb/rag-service/services/providers"
	"go.uber.org/zap"
)

// Operation names used for upstream metrics and logs.
const (
	opQuery = "query"
	opRAG   = "rag"
)

// Service forwards prompts to the completion backend, optionally augmented
// with contexts from the retrieval index.
type Service struct {
	retriever Retriever
	provider  providers.CompletionProvider
	metrics   observability.Metrics
	logger    *zap.Logger
}

// NewService creates a query service. A nil metrics discards measurements.
func NewService(retriever Retriever, provider providers.CompletionProvider, metrics observability.Metrics, logger *zap.Logger) *Service {
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &Service{
		retriever: retriever,
		provider:  provider,
		metrics:   metrics,
		logger:    logger,
	}
}

// DirectQuery sends the query text as the prompt and returns the backend
// response unchanged.
func (s *Service) DirectQuery(ctx context.Context, req Request) (json.RawMessage, error) {
	s.logger.Debug("direct query",
		zap.String("model", req.Model),
		zap.Int("max_tokens", req.MaxTokens))

	return s.complete(ctx, opQuery, req, req.Query)
}

// RAGQuery retrieves the TopK most similar passages, builds the augmented
// prompt and forwards it to the backend.
func (s *Service) RAGQuery(ctx context.Context, req RAGRequest) (*RAGResult, error) {
	start := time.Now()
	contexts, err := s.retriever.Retrieve(ctx, req.Query, req.TopK)
	if err != nil {
		s.logger.Error("retrieval failed", zap.Error(err))
		return nil, services.WrapInternal("retrieval failed", err)
	}
	s.metrics.RecordRetrieval(time.Since(start), len(contexts))

	if req.TopK >= 0 && len(contexts) > req.TopK {
		contexts = contexts[:req.TopK]
	}
	if contexts == nil {
		contexts = []string{}
	}

	s.logger.Debug("rag query",
		zap.Int("top_k", req.TopK),
		zap.Int("contexts", len(contexts)),
		zap.String("model", req.Model))

	body, err := s.complete(ctx, opRAG, req.Request, BuildPrompt(contexts, req.Query))
	if err != nil {
		return nil, err
	}

	return &RAGResult{
		LLMResponse: body,
		Contexts:    contexts,
		Query:       req.Query,
	}, nil
}

func (s *Service) complete(ctx context.Context, op string, req Request, prompt string) (json.RawMessage, error) {
	start := time.Now()
	body, err := s.provider.Complete(ctx, &providers.CompletionRequest{
		Model:       req.Model,
		Prompt:      prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	duration := time.Since(start)

	if err != nil {
		outcome := observability.OutcomeError
		if providers.IsTimeout(err) {
			outcome = observability.OutcomeTimeout
		}
		s.metrics.RecordUpstream(op, outcome, duration)
		s.logger.Error("completion backend call failed",
			zap.String("operation", op),
			zap.String("provider", s.provider.Name()),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, upstreamError(err)
	}

	s.metrics.RecordUpstream(op, observability.OutcomeOK, duration)
	s.logger.Info("completion backend call succeeded",
		zap.String("operation", op),
		zap.Duration("duration", duration),
		zap.Int("response_bytes", len(body)))
	return body, nil
}

// upstreamError converts a provider failure into an upstream domain error
// carrying the backend status and body.
func upstreamError(err error) error {
	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		return services.WrapUpstream("completion backend error", err)
	}

	message := "completion backend error"
	if provErr.Timeout {
		message = "completion backend timeout"
	}

	domainErr := services.WrapUpstream(message, err).
		WithDetail("provider", provErr.Provider).
		WithDetail("code", provErr.Code)
	if provErr.StatusCode != 0 {
		domainErr.WithDetail("status_code", provErr.StatusCode)
	}
	if provErr.Body != "" {
		domainErr.WithDetail("body", provErr.Body)
	}
	return domainErr
}

// String describes the backend for startup logs.
func (s *Service) String() string {
	return fmt.Sprintf("%s completion backend at %s", s.provider.Name(), s.provider.Endpoint())
}
