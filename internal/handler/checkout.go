package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/internal/offer"
	"github.com/devlinkhq/client-gateway/internal/payment"
	"github.com/devlinkhq/client-gateway/internal/service"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// CheckoutHandler serves the payment provider's return routes. These are
// full-page redirects from the external provider, so they carry no bearer
// header; identity comes from the persisted session and the pending-order
// parameters saved before the redirect.
type CheckoutHandler struct {
	handoff    *payment.Handoff
	controller *offer.Controller
	messenger  *service.Messenger
	logger     *logger.Logger
}

// NewCheckoutHandler creates a checkout handler.
func NewCheckoutHandler(h *payment.Handoff, controller *offer.Controller, messenger *service.Messenger, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{handoff: h, controller: controller, messenger: messenger, logger: log}
}

// Success handles GET /api/v1/checkout/success?orderId=...
// Idempotent by contract: the handoff checks for an existing order before
// creating one, so revisiting the route cannot produce a duplicate. The
// acceptance marker broadcasts only on the visit that created the order.
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	order, params, created, err := h.handoff.CompleteSuccess(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, payment.ErrNoPendingOrder) {
			writeError(w, http.StatusNotFound, "no pending payment for this order")
			return
		}
		h.logger.Warn("checkout completion failed", zap.String("order_id", orderID), zap.Error(err))
		writeBackendError(w, err, "failed to complete checkout")
		return
	}

	h.controller.ConfirmAccepted(order.OfferID)

	if created {
		err := h.messenger.SendMarker(r.Context(), params.ConversationID, params.StudentID, params.DeveloperID, model.PayloadAcceptance, params.OfferID)
		if err != nil {
			// The order exists; the counterparty catches up on its next fetch.
			h.logger.Warn("acceptance marker send failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order":   order,
		"created": created,
	})
}

// Cancel handles GET /api/v1/checkout/cancel?orderId=...
// No order is created; the pending parameters are discarded.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	h.handoff.Cancel(orderID)
	writeJSON(w, http.StatusOK, map[string]string{
		"order_id": orderID,
		"status":   "cancelled",
	})
}
