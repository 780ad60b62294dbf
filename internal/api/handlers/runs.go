package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/wonny/fpl-squad/backend/internal/store"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
)

// RunService lists recorded builds
type RunService interface {
	RecentRuns(ctx context.Context, limit int) ([]store.BuildRun, error)
}

// RunsHandler serves the build run log
type RunsHandler struct {
	service RunService
	logger  *logger.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(service RunService, log *logger.Logger) *RunsHandler {
	return &RunsHandler{service: service, logger: log}
}

// RunsResponse is the recent build listing
type RunsResponse struct {
	Count int              `json:"count"`
	Runs  []store.BuildRun `json:"runs"`
}

// GetRuns returns the latest builds, newest first
// GET /api/squad/runs?limit=20
func (h *RunsHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			respondError(w, http.StatusBadRequest, "Invalid limit (1-200)")
			return
		}
		limit = n
	}

	runs, err := h.service.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load build runs")
		respondError(w, statusFor(err), "Failed to load build runs")
		return
	}

	respondJSON(w, http.StatusOK, RunsResponse{Count: len(runs), Runs: runs})
}
