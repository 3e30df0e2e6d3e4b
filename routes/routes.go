package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/rag-service/app"
	"github.com/upb/rag-service/handlers"
	"github.com/upb/rag-service/internal/observability"
	"github.com/upb/rag-service/middleware"
	"github.com/upb/rag-service/utils"
)

// requestTimeout bounds a whole request. It must exceed the completion
// timeout so backend timeouts surface as upstream errors, not 503s.
const requestTimeout = 90 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	timeout := requestTimeout
	if t := deps.Config.Completion.Timeout + 10*time.Second; t > timeout {
		timeout = t
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger, metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// A nil *rag.Index must reach the handler as a nil interface.
	var index handlers.IndexStats
	if deps.Index != nil {
		index = deps.Index
	}

	health := handlers.NewHealthHandler(index, deps.Config.Completion.URL(), deps.Logger)
	queries := handlers.NewQueryHandler(deps.Query, deps.Config.Completion.DefaultModel, deps.Logger)

	r.Get("/", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	r.Post("/query", queries.HandleQuery)
	r.Post("/rag", queries.HandleRAG)

	if deps.Prometheus != nil {
		r.Method(http.MethodGet, "/metrics", deps.Prometheus.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteMethodNotAllowed(w)
	})

	return r
}
