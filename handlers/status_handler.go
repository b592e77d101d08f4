package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/quantumfork/whatif/services/governor"
	"github.com/quantumfork/whatif/utils"
)

// GovernorService exposes the governor's operational surface
type GovernorService interface {
	// Status reports rate limiter, cache and usage state
	Status() governor.StatusReport
	// ClearCache drops all cached responses
	ClearCache()
}

// StatusHandler handles governor status and cache administration
type StatusHandler struct {
	governor GovernorService
	logger   *zap.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(gov GovernorService, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		governor: gov,
		logger:   logger,
	}
}

// HandleStatus handles GET /api/v1/status
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteOK(w, h.governor.Status()); err != nil {
		h.logger.Error("failed to write status response", zap.Error(err))
	}
}

// HandleClearCache handles DELETE /api/v1/cache
func (h *StatusHandler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	h.governor.ClearCache()
	h.logger.Info("response cache cleared")

	if err := utils.WriteOK(w, map[string]string{"message": "cache cleared"}); err != nil {
		h.logger.Error("failed to write cache clear response", zap.Error(err))
	}
}
