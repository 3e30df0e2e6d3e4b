package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/rag-service/config"
	"github.com/upb/rag-service/internal/observability"
	"github.com/upb/rag-service/internal/rag"
	"github.com/upb/rag-service/services"
	"github.com/upb/rag-service/services/providers"
	"github.com/upb/rag-service/services/providers/vllm"
	"github.com/upb/rag-service/services/query"
	"go.uber.org/zap"
)

// probeText is embedded once at startup to check the embedding backend.
const probeText = "health check"

// Dependencies holds everything the HTTP layer needs. It is built once at
// startup; a failure here means the process must not serve traffic.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Metrics is always usable. Prometheus is nil when metrics are disabled.
	Metrics    observability.Metrics
	Prometheus *observability.PrometheusMetrics

	// Retrieval
	Embedder Embedder
	Index    *rag.Index

	// Completion
	Completion providers.CompletionProvider
	Query      *query.Service
}

// Option customises NewDependencies, mainly for tests.
type Option func(*Dependencies)

// WithEmbedder replaces the configured embedding backend.
func WithEmbedder(e Embedder) Option {
	return func(d *Dependencies) { d.Embedder = e }
}

// WithCompletionProvider replaces the vLLM adapter.
func WithCompletionProvider(p providers.CompletionProvider) Option {
	return func(d *Dependencies) { d.Completion = p }
}

// NewDependencies creates and wires up all application dependencies:
// embedding backend, retrieval index, completion client and query service.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}
	for _, opt := range opts {
		opt(deps)
	}

	deps.initMetrics(cfg)

	if err := deps.initEmbedder(ctx, cfg); err != nil {
		return nil, err
	}

	if err := deps.initIndex(ctx, cfg); err != nil {
		return nil, err
	}

	deps.initCompletion(cfg)

	deps.Query = query.NewService(deps.Index, deps.Completion, deps.Metrics, logger)

	logger.Info("all dependencies initialized successfully",
		zap.Int("documents", deps.Index.Len()),
		zap.String("completion_url", deps.Completion.Endpoint()))
	return deps, nil
}

func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NopMetrics{}
		return
	}
	d.Prometheus = observability.NewPrometheusMetrics()
	d.Metrics = d.Prometheus
}

// initEmbedder creates the embedding client and embeds a probe text so an
// unreachable model fails startup instead of the first request.
func (d *Dependencies) initEmbedder(ctx context.Context, cfg *config.Config) error {
	if d.Embedder == nil {
		embedder, err := NewEmbedder(cfg.Embedding)
		if err != nil {
			return services.WrapError(services.ErrorTypeModelUnavailable, "embedding provider", err)
		}
		d.Embedder = embedder
	}

	vec, err := d.Embedder.Embed(ctx, probeText)
	if err != nil {
		return services.NewDomainError(services.ErrorTypeModelUnavailable,
			fmt.Sprintf("embedding model %s unavailable", d.Embedder.Model()), err).
			WithDetail("provider", d.Embedder.Name())
	}

	d.Logger.Info("embedding model ready",
		zap.String("provider", d.Embedder.Name()),
		zap.String("model", d.Embedder.Model()),
		zap.Int("dimension", len(vec)))
	return nil
}

// initIndex loads the dataset and embeds every passage.
func (d *Dependencies) initIndex(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	docs, err := rag.LoadSQuAD(cfg.Index.DataPath, cfg.Index.MaxDocuments)
	if err != nil {
		return services.NewDomainError(services.ErrorTypeIndexInitialization, "failed to load dataset", err).
			WithDetail("path", cfg.Index.DataPath)
	}

	idx, err := rag.Build(ctx, docs, d.Embedder, rag.BuildOptions{
		BatchSize: cfg.Index.BatchSize,
		Progress: func(done, total int) {
			d.Logger.Debug("embedding documents", zap.Int("done", done), zap.Int("total", total))
		},
	})
	if err != nil {
		return services.NewDomainError(services.ErrorTypeIndexInitialization, "failed to build index", err)
	}

	d.Index = idx
	d.Metrics.SetIndexSize(idx.Len())
	d.Logger.Info("retrieval index built",
		zap.String("path", cfg.Index.DataPath),
		zap.Int("documents", idx.Len()),
		zap.Int("dimension", idx.Dimension()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (d *Dependencies) initCompletion(cfg *config.Config) {
	if d.Completion != nil {
		return
	}
	d.Completion = vllm.NewAdapter(cfg.Completion.URL(), providers.ProviderConfig{
		Timeout: cfg.Completion.Timeout,
	})
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	// stdout/stderr sinks return EINVAL on Sync on some platforms
	_ = d.Logger.Sync()
	return nil
}
