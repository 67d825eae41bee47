package handler

import (
	"net/http"

	"github.com/devlinkhq/client-gateway/internal/localstore"
	"github.com/devlinkhq/client-gateway/internal/realtime"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	realtimeClient *realtime.Client
	local          *localstore.Store
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(rt *realtime.Client, local *localstore.Store) *HealthHandler {
	return &HealthHandler{realtimeClient: rt, local: local}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready. Local storage is required; the realtime
// connection is reported but not required, since the gateway degrades to
// polling without it.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.local.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "local storage unavailable",
		})
		return
	}

	realtimeStatus := "connected"
	if !h.realtimeClient.IsConnected() {
		realtimeStatus = "degraded (polling only)"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"realtime": realtimeStatus,
	})
}
