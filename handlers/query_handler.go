package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/upb/rag-service/middleware"
	"github.com/upb/rag-service/services/query"
	"github.com/upb/rag-service/utils"
	"go.uber.org/zap"
)

// QueryRequest is the body of POST /query. Omitted fields take the
// service defaults. max_tokens and temperature are passed through unchecked;
// the completion backend owns their ranges.
type QueryRequest struct {
	Query       *string  `json:"query" validate:"required"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Model       *string  `json:"model,omitempty" validate:"omitempty,min=1"`
}

// RAGRequest is the body of POST /rag. top_k has no upper bound; asking for
// more than the index holds returns every document.
type RAGRequest struct {
	QueryRequest
	TopK *int `json:"top_k,omitempty" validate:"omitempty,gte=0"`
}

// toRequest applies defaults. model falls back to defaultModel.
func (r *QueryRequest) toRequest(defaultModel string) query.Request {
	req := query.Request{
		Query:       *r.Query,
		MaxTokens:   query.DefaultMaxTokens,
		Temperature: query.DefaultTemperature,
		Model:       defaultModel,
	}
	if r.MaxTokens != nil {
		req.MaxTokens = *r.MaxTokens
	}
	if r.Temperature != nil {
		req.Temperature = *r.Temperature
	}
	if r.Model != nil {
		req.Model = *r.Model
	}
	return req
}

func (r *RAGRequest) toRAGRequest(defaultModel string) query.RAGRequest {
	req := query.RAGRequest{
		Request: r.QueryRequest.toRequest(defaultModel),
		TopK:    query.DefaultTopK,
	}
	if r.TopK != nil {
		req.TopK = *r.TopK
	}
	return req
}

// QueryService defines the operations behind /query and /rag
type QueryService interface {
	DirectQuery(ctx context.Context, req query.Request) (json.RawMessage, error)
	RAGQuery(ctx context.Context, req query.RAGRequest) (*query.RAGResult, error)
}

// QueryHandler handles completion requests
type QueryHandler struct {
	service      QueryService
	defaultModel string
	logger       *zap.Logger
}

// NewQueryHandler creates a new QueryHandler. An empty defaultModel uses
// query.DefaultModel.
func NewQueryHandler(service QueryService, defaultModel string, logger *zap.Logger) *QueryHandler {
	if defaultModel == "" {
		defaultModel = query.DefaultModel
	}
	return &QueryHandler{
		service:      service,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// HandleQuery handles POST /query
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var body QueryRequest
	if err := h.decode(r, &body); err != nil {
		h.logger.Debug("invalid query request", zap.String("request_id", requestID), zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	resp, err := h.service.DirectQuery(ctx, body.toRequest(h.defaultModel))
	if err != nil {
		HandleServiceError(w, err, h.logger.With(zap.String("request_id", requestID)))
		return
	}

	if err := utils.WriteRawJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write response", zap.String("request_id", requestID), zap.Error(err))
	}
}

// HandleRAG handles POST /rag
func (h *QueryHandler) HandleRAG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var body RAGRequest
	if err := h.decode(r, &body); err != nil {
		h.logger.Debug("invalid rag request", zap.String("request_id", requestID), zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.RAGQuery(ctx, body.toRAGRequest(h.defaultModel))
	if err != nil {
		HandleServiceError(w, err, h.logger.With(zap.String("request_id", requestID)))
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("failed to write response", zap.String("request_id", requestID), zap.Error(err))
	}
}

func (h *QueryHandler) decode(r *http.Request, dst interface{}) error {
	if err := utils.DecodeJSON(r, dst); err != nil {
		return err
	}
	return utils.ValidateStruct(dst)
}
