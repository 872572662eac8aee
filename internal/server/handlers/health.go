package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/vidtube/pkg/api"
)

// Pinger reports whether the identity store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves health checks
type HealthHandler struct {
	logger  *slog.Logger
	store   Pinger
	version string
}

// NewHealthHandler creates the health check handler
func NewHealthHandler(logger *slog.Logger, store Pinger, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		store:   store,
		version: version,
	}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "store is unreachable", slog.Any("error", err))
		WriteJSON(w, h.logger, api.HealthResponse{Status: "unavailable", Version: h.version}, http.StatusServiceUnavailable)
		return
	}

	WriteJSON(w, h.logger, api.HealthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}
