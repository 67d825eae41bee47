// Package offer tracks the client-local lifecycle of offers embedded in
// conversation messages: open, accepted, withdrawn. The backend order
// record stays canonical; the state kept here only drives what the view
// paints and which controls stay enabled.
package offer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/internal/payment"
	"github.com/devlinkhq/client-gateway/pkg/logger"
	"github.com/devlinkhq/client-gateway/pkg/metrics"
)

var (
	// ErrAlreadyAccepted rejects a second acceptance attempt (double-click
	// race); the latch is taken synchronously before any network call.
	ErrAlreadyAccepted = errors.New("offer: already accepted")
	// ErrWithdrawn rejects acceptance of a withdrawn offer.
	ErrWithdrawn = errors.New("offer: withdrawn")
	// ErrNotReceiver rejects acceptance by anyone but the receiving party.
	ErrNotReceiver = errors.New("offer: only the receiving party can accept")
	// ErrNotOffer rejects acceptance of a non-offer message.
	ErrNotOffer = errors.New("offer: message is not an offer")
)

// Booker starts the booking flow for an accepted offer.
type Booker interface {
	Book(ctx context.Context, params payment.BookingParams) (*payment.Booking, error)
}

// MarkerSender broadcasts a silent marker message into a conversation so
// the counterparty's view updates without a reload.
type MarkerSender interface {
	SendMarker(ctx context.Context, conversationID, senderID, receiverID string, kind model.PayloadKind, offerID string) error
}

// Controller is the offer lifecycle state machine.
type Controller struct {
	log      *logger.Logger
	payments Booker
	markers  MarkerSender

	mu        sync.Mutex
	accepted  map[string]bool
	withdrawn map[string]bool
}

// NewController creates a controller.
func NewController(payments Booker, markers MarkerSender, log *logger.Logger) *Controller {
	return &Controller{
		log:       log,
		payments:  payments,
		markers:   markers,
		accepted:  make(map[string]bool),
		withdrawn: make(map[string]bool),
	}
}

// Accept runs the open → accepted transition for the receiving party. The
// acceptance latch is taken synchronously, so a racing second call fails
// with ErrAlreadyAccepted before any network round trip; a booking failure
// releases the latch so the user can retry.
func (c *Controller) Accept(ctx context.Context, msg model.Message, viewerID string) (*payment.Booking, error) {
	if msg.Kind != model.PayloadOffer {
		return nil, ErrNotOffer
	}
	if msg.ReceiverID != viewerID {
		return nil, ErrNotReceiver
	}

	params := ExtractParams(msg.Payload, c.log)
	if params.OfferID == "" {
		params.OfferID = msg.ID
	}

	c.mu.Lock()
	switch {
	case c.withdrawn[params.OfferID]:
		c.mu.Unlock()
		return nil, ErrWithdrawn
	case c.accepted[params.OfferID]:
		c.mu.Unlock()
		return nil, ErrAlreadyAccepted
	}
	c.accepted[params.OfferID] = true
	c.mu.Unlock()

	booking, err := c.payments.Book(ctx, payment.BookingParams{
		OfferID:         params.OfferID,
		ConversationID:  msg.ConversationID,
		StudentID:       viewerID,
		DeveloperID:     msg.SenderID,
		Description:     params.Description,
		Amount:          params.Amount,
		DeliveryDays:    params.DeliveryDays,
		Revisions:       params.Revisions,
		MeetingIncluded: params.MeetingIncluded,
	})
	if err != nil {
		c.mu.Lock()
		delete(c.accepted, params.OfferID)
		c.mu.Unlock()
		return nil, err
	}

	metrics.OffersAccepted.Inc()

	if booking.Order != nil {
		// Free-tier path: the order exists now, tell the counterparty.
		if err := c.markers.SendMarker(ctx, msg.ConversationID, viewerID, msg.SenderID, model.PayloadAcceptance, params.OfferID); err != nil {
			// The order is real regardless; the marker is only a cache hint.
			c.log.Warn("acceptance marker send failed", zap.String("offer_id", params.OfferID), zap.Error(err))
		}
	}

	return booking, nil
}

// ConfirmAccepted latches an offer as accepted without running the booking
// flow. Used when a paid checkout completes on the success route.
func (c *Controller) ConfirmAccepted(offerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accepted[offerID] = true
}

// HandleWithdrawal flips an offer to withdrawn, disabling further action on
// it. Idempotent: the first delivery returns true, repeats are no-ops.
func (c *Controller) HandleWithdrawal(offerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.withdrawn[offerID] {
		return false
	}
	c.withdrawn[offerID] = true
	metrics.OffersWithdrawn.Inc()
	return true
}

// Observe inspects a reconciled message for silent markers and applies the
// state change they signal. Called for every incoming message; non-marker
// kinds pass through untouched.
func (c *Controller) Observe(msg model.Message) {
	switch msg.Kind {
	case model.PayloadWithdrawal, model.PayloadAcceptance:
	default:
		return
	}

	var marker model.MarkerPayload
	if err := json.Unmarshal(msg.Payload, &marker); err != nil || marker.OfferID == "" {
		c.log.Warn("malformed marker payload", zap.String("message_id", msg.ID), zap.Error(err))
		return
	}

	switch msg.Kind {
	case model.PayloadWithdrawal:
		if c.HandleWithdrawal(marker.OfferID) {
			c.log.Info("offer withdrawn", zap.String("offer_id", marker.OfferID))
		}
	case model.PayloadAcceptance:
		c.ConfirmAccepted(marker.OfferID)
	}
}

// State derives the display state for an offer id.
func (c *Controller) State(offerID string) model.OfferState {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.withdrawn[offerID]:
		return model.OfferWithdrawn
	case c.accepted[offerID]:
		return model.OfferAccepted
	}
	return model.OfferOpen
}
