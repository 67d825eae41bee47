package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devlinkhq/client-gateway/internal/backend"
	"github.com/devlinkhq/client-gateway/internal/localstore"
	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// MiscHandler serves subscription upsell, complaints, video room tokens and
// local preferences.
type MiscHandler struct {
	backend    *backend.Client
	local      *localstore.Store
	logger     *logger.Logger
	successURL string
	cancelURL  string
}

// NewMiscHandler creates the handler for the remaining routes.
func NewMiscHandler(bc *backend.Client, local *localstore.Store, log *logger.Logger, successURL, cancelURL string) *MiscHandler {
	return &MiscHandler{backend: bc, local: local, logger: log, successURL: successURL, cancelURL: cancelURL}
}

// Subscription handles GET /api/v1/subscription. No subscription yet is an
// empty state: a free plan, not an error.
func (h *MiscHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.backend.Subscription(r.Context())
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			writeJSON(w, http.StatusOK, &model.Subscription{Plan: "free"})
			return
		}
		writeBackendError(w, err, "failed to load subscription")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// SubscriptionCheckout handles POST /api/v1/subscription/checkout: opens a
// payment session for the Pro upgrade and returns the redirect URL.
func (h *MiscHandler) SubscriptionCheckout(w http.ResponseWriter, r *http.Request) {
	session, err := h.backend.CreateSubscriptionCheckout(r.Context(), h.successURL, h.cancelURL)
	if err != nil {
		writeBackendError(w, err, "failed to create checkout session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Complaint handles POST /api/v1/complaints
func (h *MiscHandler) Complaint(w http.ResponseWriter, r *http.Request) {
	var req model.ComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subject == "" || req.Details == "" {
		writeError(w, http.StatusBadRequest, "subject and details are required")
		return
	}

	if err := h.backend.SubmitComplaint(r.Context(), &req); err != nil {
		writeBackendError(w, err, "failed to submit complaint")
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RoomToken handles GET /api/v1/rooms/{roomId}/token: fetches a
// server-issued, short-lived credential for the video room. Long-lived SDK
// secrets never reach the client.
func (h *MiscHandler) RoomToken(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room id is required")
		return
	}

	token, err := h.backend.RoomToken(r.Context(), roomID)
	if err != nil {
		writeBackendError(w, err, "failed to fetch room token")
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// GetDarkMode handles GET /api/v1/preferences/dark-mode
func (h *MiscHandler) GetDarkMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.local.DarkMode()})
}

// SetDarkMode handles PUT /api/v1/preferences/dark-mode
func (h *MiscHandler) SetDarkMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.local.SetDarkMode(req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save preference")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}
