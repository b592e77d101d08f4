package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/quantumfork/whatif/repositories"
	"github.com/quantumfork/whatif/services/governor"
	"github.com/quantumfork/whatif/utils"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, repositories.ErrNotFound):
		if err := utils.WriteNotFound(w, "Simulation not found"); err != nil {
			logger.Error("failed to write not found response", zap.Error(err))
		}

	case governor.IsRateLimited(err):
		var rateErr *governor.RateLimitedError
		details := map[string]interface{}{}
		if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
			details["retry_after_seconds"] = rateErr.RetryAfter.Seconds()
		}
		if err := utils.WriteTooManyRequests(w, err.Error(), details); err != nil {
			logger.Error("failed to write rate limit response", zap.Error(err))
		}

	default:
		logger.Error("internal server error", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An internal error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
