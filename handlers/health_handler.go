package handlers

import (
	"net/http"

	"github.com/upb/rag-service/utils"
	"go.uber.org/zap"
)

// HealthResponse is the body of GET /
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ReadinessResponse describes what the service loaded at startup
type ReadinessResponse struct {
	Status             string `json:"status"`
	Documents          int    `json:"documents"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	CompletionURL      string `json:"completion_url"`
}

// IndexStats is the part of the retrieval index the readiness probe reports.
type IndexStats interface {
	Len() int
	Dimension() int
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	index         IndexStats
	completionURL string
	logger        *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(index IndexStats, completionURL string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		index:         index,
		completionURL: completionURL,
		logger:        logger,
	}
}

// HandleHealth handles GET /
// Always 200 while the process is serving.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Service: "RAG"}); err != nil {
		h.logger.Error("failed to write health response", zap.Error(err))
	}
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := ReadinessResponse{Status: "not_ready", CompletionURL: h.completionURL}
	status := http.StatusServiceUnavailable

	if h.index != nil {
		resp.Status = "ready"
		resp.Documents = h.index.Len()
		resp.EmbeddingDimension = h.index.Dimension()
		status = http.StatusOK
	}

	if err := utils.WriteJSON(w, status, resp); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
