package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rag"

// Metrics collects application metrics.
type Metrics interface {
	RecordRequest(labels RequestLabels, duration time.Duration)
	RecordUpstream(operation, outcome string, duration time.Duration)
	RecordRetrieval(duration time.Duration, results int)
	SetIndexSize(documents int)
}

// RequestLabels contains metric dimensions.
type RequestLabels struct {
	Method string
	Route  string
	Status int
}

// Upstream call outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// PrometheusMetrics records metrics into its own registry.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	retrievalSeconds prometheus.Histogram
	retrievalResults prometheus.Histogram
	indexDocuments   prometheus.Gauge
}

// NewPrometheusMetrics creates collectors on a fresh registry, together with
// the Go runtime and process collectors.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		upstreamTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Completion backend calls by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Completion backend latency.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		retrievalSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Query embedding plus index scan latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		retrievalResults: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_results",
			Help:      "Number of contexts returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		}),
		indexDocuments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_documents",
			Help:      "Documents held by the retrieval index.",
		}),
	}
}

func (m *PrometheusMetrics) RecordRequest(labels RequestLabels, duration time.Duration) {
	m.requestsTotal.WithLabelValues(labels.Route, labels.Method, strconv.Itoa(labels.Status)).Inc()
	m.requestDuration.WithLabelValues(labels.Route, labels.Method).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordUpstream(operation, outcome string, duration time.Duration) {
	m.upstreamTotal.WithLabelValues(operation, outcome).Inc()
	m.upstreamDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordRetrieval(duration time.Duration, results int) {
	m.retrievalSeconds.Observe(duration.Seconds())
	m.retrievalResults.Observe(float64(results))
}

func (m *PrometheusMetrics) SetIndexSize(documents int) {
	m.indexDocuments.Set(float64(documents))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordRequest(RequestLabels, time.Duration) {}
func (NopMetrics) RecordUpstream(string, string, time.Duration) {}
func (NopMetrics) RecordRetrieval(time.Duration, int) {}
func (NopMetrics) SetIndexSize(int) {}
