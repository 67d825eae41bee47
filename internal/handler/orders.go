package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devlinkhq/client-gateway/internal/backend"
	"github.com/devlinkhq/client-gateway/internal/middleware"
	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// OrderHandler serves the order lifecycle: listing, status transitions and
// feedback. The backend order record is canonical; the gateway only blocks
// transition requests that can never succeed.
type OrderHandler struct {
	backend *backend.Client
	logger  *logger.Logger
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(bc *backend.Client, log *logger.Logger) *OrderHandler {
	return &OrderHandler{backend: bc, logger: log}
}

// List handles GET /api/v1/orders?role=student|developer. Having no orders
// yet is an empty state, not a failure.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	role := model.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = model.Role(middleware.GetRole(r.Context()))
	}

	orders, err := h.backend.Orders(r.Context(), role)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"orders": []model.Order{}})
			return
		}
		writeBackendError(w, err, "failed to load orders")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	order, err := h.backend.Order(r.Context(), orderID)
	if err != nil {
		writeBackendError(w, err, "failed to load order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles POST /api/v1/orders/{id}/status: deliver, accept
// delivery, cancel. The requested transition is checked against the current
// backend state first.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "id")

	var req model.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := h.backend.Order(ctx, orderID)
	if err != nil {
		writeBackendError(w, err, "failed to load order")
		return
	}

	if !model.ValidOrderTransition(current.Status, req.Status) {
		writeError(w, http.StatusConflict, "invalid status transition")
		return
	}

	updated, err := h.backend.UpdateOrderStatus(ctx, orderID, req.Status)
	if err != nil {
		writeBackendError(w, err, "failed to update order status")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Feedback handles POST /api/v1/orders/{id}/feedback
func (h *OrderHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req model.SubmitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateRating(req.Rating); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.backend.SubmitFeedback(r.Context(), orderID, &req); err != nil {
		writeBackendError(w, err, "failed to submit feedback")
		return
	}

	w.WriteHeader(http.StatusCreated)
}
