package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/rag-service/services"
	"github.com/upb/rag-service/utils"
	"go.uber.org/zap"
)

// serviceErrorPrefix starts the detail of every 500 reply.
const serviceErrorPrefix = "service error: "

// HandleServiceError maps domain errors to HTTP responses. Validation errors
// become 422; everything else, including backend failures, is a 500 whose
// detail describes the cause.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	if errors.Is(err, services.ErrInvalidInput) || utils.IsValidationError(err) {
		HandleValidationError(w, err, logger)
		return
	}

	switch {
	case errors.Is(err, services.ErrUpstream):
		logger.Warn("completion backend error",
			zap.Error(err),
			zap.Any("details", services.GetErrorDetails(err)))
	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
	}

	if err := utils.WriteInternalServerError(w, serviceErrorPrefix+err.Error()); err != nil {
		logger.Error("failed to write internal error response", zap.Error(err))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	detail := "Validation failed"
	fields := utils.GetValidationFields(err)
	if fields == nil {
		detail = err.Error()
	} else if msg := err.Error(); msg != "" {
		detail = msg
	}

	if err := utils.WriteValidationError(w, detail, fields); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
