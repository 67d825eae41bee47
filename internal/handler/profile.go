package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devlinkhq/client-gateway/internal/backend"
	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// ProfileHandler serves developer discovery and profile CRUD passthrough.
type ProfileHandler struct {
	backend *backend.Client
	logger  *logger.Logger
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(bc *backend.Client, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{backend: bc, logger: log}
}

// Developers handles GET /api/v1/developers?skill=...
func (h *ProfileHandler) Developers(w http.ResponseWriter, r *http.Request) {
	developers, err := h.backend.Developers(r.Context(), r.URL.Query().Get("skill"))
	if err != nil {
		writeBackendError(w, err, "failed to load developers")
		return
	}
	if developers == nil {
		developers = []model.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"developers": developers})
}

// Get handles GET /api/v1/profile/{userId}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	user, err := h.backend.Profile(r.Context(), userID)
	if err != nil {
		writeBackendError(w, err, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/v1/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.backend.UpdateProfile(r.Context(), &req)
	if err != nil {
		writeBackendError(w, err, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
