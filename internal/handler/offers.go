package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/backend"
	"github.com/devlinkhq/client-gateway/internal/middleware"
	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/internal/offer"
	"github.com/devlinkhq/client-gateway/internal/service"
	"github.com/devlinkhq/client-gateway/internal/store"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// OfferHandler serves offer creation, acceptance and withdrawal.
type OfferHandler struct {
	store      *store.Store
	backend    *backend.Client
	messenger  *service.Messenger
	controller *offer.Controller
	logger     *logger.Logger
}

// NewOfferHandler creates an offer handler.
func NewOfferHandler(
	st *store.Store,
	bc *backend.Client,
	messenger *service.Messenger,
	controller *offer.Controller,
	log *logger.Logger,
) *OfferHandler {
	return &OfferHandler{
		store:      st,
		backend:    bc,
		messenger:  messenger,
		controller: controller,
		logger:     log,
	}
}

// Create handles POST /api/v1/offers: registers the offer with the backend
// and embeds it into the conversation as an offer-kind message.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateUserID(req.PeerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateOfferDescription(req.Description); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateAmount(req.Amount); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	off := model.Offer{
		ID:              uuid.Must(uuid.NewV7()).String(),
		SenderID:        userID,
		ReceiverID:      req.PeerID,
		Description:     req.Description,
		Amount:          req.Amount,
		DeliveryDays:    req.DeliveryDays,
		Revisions:       req.Revisions,
		MeetingIncluded: req.MeetingIncluded,
	}

	created, err := h.backend.CreateOffer(ctx, &off)
	if err != nil {
		writeBackendError(w, err, "failed to create offer")
		return
	}

	msg, err := h.messenger.SendOffer(ctx, userID, req.PeerID, *created)
	if err != nil {
		h.logger.Warn("offer message send failed", zap.String("offer_id", created.ID), zap.Error(err))
		writeBackendError(w, err, "failed to send offer")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"offer":      created,
		"message_id": msg.ID,
	})
}

// Accept handles POST /api/v1/offers/{id}/accept. The body names the
// message carrying the offer; the controller latches acceptance before any
// network call, so a double-click race yields exactly one booking.
func (h *OfferHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	offerID := chi.URLParam(r, "id")

	var req struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, ok := h.store.Message(req.MessageID)
	if !ok {
		writeError(w, http.StatusNotFound, "offer message not found in the active conversation")
		return
	}

	booking, err := h.controller.Accept(ctx, msg, userID)
	if err != nil {
		switch {
		case errors.Is(err, offer.ErrAlreadyAccepted):
			writeError(w, http.StatusConflict, "offer already accepted")
		case errors.Is(err, offer.ErrWithdrawn):
			writeError(w, http.StatusConflict, "offer has been withdrawn")
		case errors.Is(err, offer.ErrNotReceiver), errors.Is(err, offer.ErrNotOffer):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			h.logger.Warn("offer acceptance failed", zap.String("offer_id", offerID), zap.Error(err))
			writeBackendError(w, err, "failed to accept offer")
		}
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// Withdraw handles POST /api/v1/offers/{id}/withdraw: the sender broadcasts
// a silent withdrawal marker so the counterparty's view flips without a
// reload. Local state flips regardless of marker delivery; the duplicate-
// delivery path is a no-op on both sides.
func (h *OfferHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	offerID := chi.URLParam(r, "id")

	var req struct {
		ConversationID string `json:"conversation_id"`
		PeerID         string `json:"peer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateUserID(req.PeerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.controller.HandleWithdrawal(offerID)

	if err := h.messenger.SendMarker(ctx, req.ConversationID, userID, req.PeerID, model.PayloadWithdrawal, offerID); err != nil {
		h.logger.Warn("withdrawal marker send failed", zap.String("offer_id", offerID), zap.Error(err))
		writeBackendError(w, err, "failed to broadcast withdrawal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"offer_id": offerID,
		"state":    string(model.OfferWithdrawn),
	})
}
