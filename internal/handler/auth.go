package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/backend"
	"github.com/devlinkhq/client-gateway/internal/localstore"
	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/internal/store"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// AuthHandler handles login, signup and OTP verification. On success the
// backend-issued session is persisted to durable local storage.
type AuthHandler struct {
	backend *backend.Client
	local   *localstore.Store
	store   *store.Store
	logger  *logger.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(bc *backend.Client, local *localstore.Store, st *store.Store, log *logger.Logger) *AuthHandler {
	return &AuthHandler{backend: bc, local: local, store: st, logger: log}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	resp, err := h.backend.Login(r.Context(), &req)
	if err != nil {
		writeBackendError(w, err, "login failed")
		return
	}

	h.persistSession(resp)
	writeJSON(w, http.StatusOK, resp)
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	if req.Role != model.RoleStudent && req.Role != model.RoleDeveloper {
		writeError(w, http.StatusBadRequest, "role must be student or developer")
		return
	}

	if err := h.backend.Signup(r.Context(), &req); err != nil {
		writeBackendError(w, err, "signup failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "verification code sent",
	})
}

// Verify handles POST /api/v1/auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	resp, err := h.backend.Verify(r.Context(), &req)
	if err != nil {
		writeBackendError(w, err, "verification failed")
		return
	}

	h.persistSession(resp)
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.local.ClearSession(); err != nil {
		h.logger.Warn("failed to clear session", zap.Error(err))
	}
	h.store.SetUser("")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) persistSession(resp *model.AuthResponse) {
	err := h.local.SaveSession(localstore.Session{
		Token:    resp.Token,
		UserID:   resp.User.ID,
		Username: resp.User.Username,
		Role:     string(resp.User.Role),
	})
	if err != nil {
		// The in-memory session still works; only restarts lose it.
		h.logger.Warn("failed to persist session", zap.Error(err))
	}
	h.store.SetUser(resp.User.ID)
}
