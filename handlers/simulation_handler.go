package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/quantumfork/whatif/models"
	"github.com/quantumfork/whatif/utils"
	"github.com/quantumfork/whatif/visualization"
)

const defaultBranchCount = 4

// SimulationRequest is the body for POST /api/v1/simulations
type SimulationRequest struct {
	Decision    string `json:"decision" validate:"required,max=500"`
	Mode        string `json:"mode,omitempty" validate:"omitempty,oneof=realistic 50/50 random"`
	NumBranches int    `json:"branches,omitempty" validate:"omitempty,gte=1,lte=6"`
}

// SimulationService defines the simulation operations the handler needs
type SimulationService interface {
	// Generate runs a full simulation and persists the result
	Generate(ctx context.Context, decision, mode string, numBranches int) (*models.Simulation, error)
	// Load retrieves a persisted simulation, bumping the share count when shared
	Load(ctx context.Context, id string, shared bool) (*models.Simulation, error)
}

// SimulationHandler handles simulation HTTP requests
type SimulationHandler struct {
	service  SimulationService
	renderer *visualization.Renderer
	logger   *zap.Logger
}

// NewSimulationHandler creates a new SimulationHandler
func NewSimulationHandler(service SimulationService, renderer *visualization.Renderer, logger *zap.Logger) *SimulationHandler {
	return &SimulationHandler{
		service:  service,
		renderer: renderer,
		logger:   logger,
	}
}

// HandleCreate handles POST /api/v1/simulations
func (h *SimulationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body", zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed", zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	if req.NumBranches == 0 {
		req.NumBranches = defaultBranchCount
	}

	sim, err := h.service.Generate(r.Context(), req.Decision, req.Mode, req.NumBranches)
	if err != nil {
		h.logger.Error("failed to generate simulation", zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("simulation created",
		zap.String("simulation_id", sim.ID),
		zap.String("mode", sim.Mode),
		zap.Int("branches", len(sim.Branches)))

	if err := utils.WriteCreated(w, sim); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleGet handles GET /api/v1/simulations/{id}
// The shared=true query flag marks the load as a share-link visit.
func (h *SimulationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	shared := r.URL.Query().Get("shared") == "true"

	sim, err := h.service.Load(r.Context(), id, shared)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, sim); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleRiver handles GET /api/v1/simulations/{id}/river
// Returns the River of Destiny SVG. An optional screen_width query
// parameter switches to the mobile rendition.
func (h *SimulationHandler) HandleRiver(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sim, err := h.service.Load(r.Context(), id, false)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	svg := h.renderer.Render(sim)
	if width := parseScreenWidth(r); width > 0 {
		svg = h.renderer.AdaptForMobile(svg, width)
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(svg)); err != nil {
		h.logger.Error("failed to write svg response", zap.Error(err))
	}
}

func parseScreenWidth(r *http.Request) int {
	raw := r.URL.Query().Get("screen_width")
	if raw == "" {
		return 0
	}
	width, err := strconv.Atoi(raw)
	if err != nil || width < 0 {
		return 0
	}
	return width
}
