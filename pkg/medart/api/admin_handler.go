package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/medical-artists/pkg/medart/sweeper"
)

// SweepRunner runs a single sweep of stale pending records
type SweepRunner interface {
	RunOnce(ctx context.Context) (sweeper.Result, error)
}

// AdminHandler exposes operator endpoints
type AdminHandler struct {
	sweeper SweepRunner
}

// NewAdminHandler creates a new admin handler. A nil runner disables the
// sweep endpoint.
func NewAdminHandler(runner SweepRunner) *AdminHandler {
	return &AdminHandler{sweeper: runner}
}

// Routes returns the admin routes
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sweep", h.Sweep)
	return r
}

// Sweep runs one sweep synchronously and returns its counts
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	if h.sweeper == nil {
		writeError(w, r, http.StatusServiceUnavailable, "metadata recording is disabled")
		return
	}

	result, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		slog.Error("Failed to run sweep", "error", err)
		writeError(w, r, http.StatusInternalServerError, "sweep failed")
		return
	}

	render.JSON(w, r, result)
}
