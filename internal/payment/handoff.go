// Package payment manages the transition from "offer accepted" to "payment
// completed" or "payment cancelled". Paid flows leave the gateway entirely
// (full-page redirect to the external provider), so everything the success
// route needs is persisted to durable local storage first.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/backend"
	"github.com/devlinkhq/client-gateway/internal/localstore"
	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/pkg/logger"
	"github.com/devlinkhq/client-gateway/pkg/metrics"
)

// ErrNoPendingOrder is returned by CompleteSuccess when neither an existing
// order nor persisted parameters can be found for the order id.
var ErrNoPendingOrder = errors.New("payment: no pending order parameters")

// Backend is the slice of the REST client the handoff needs.
type Backend interface {
	CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error)
	Order(ctx context.Context, orderID string) (*model.Order, error)
	CreateCheckoutSession(ctx context.Context, req *model.CreateCheckoutSessionRequest) (*model.CheckoutSession, error)
	Subscription(ctx context.Context) (*model.Subscription, error)
}

// BookingParams carries everything needed to create an order once payment
// (or free confirmation) completes. The struct is persisted verbatim across
// the payment redirect.
type BookingParams struct {
	OfferID         string `json:"offer_id"`
	ConversationID  string `json:"conversation_id"`
	StudentID       string `json:"student_id"`
	DeveloperID     string `json:"developer_id"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	DeliveryDays    int    `json:"delivery_days"`
	Revisions       int    `json:"revisions"`
	MeetingIncluded bool   `json:"meeting_included"`
}

// Booking is the outcome of starting the booking flow. For a free offer
// Order is set and no redirect happens; for a paid offer RedirectURL points
// at the external provider and Order is nil until the success route runs.
type Booking struct {
	OrderID     string       `json:"order_id"`
	Amount      string       `json:"amount"`
	Order       *model.Order `json:"order,omitempty"`
	RedirectURL string       `json:"redirect_url,omitempty"`
}

// Handoff coordinates order creation with the external payment flow.
type Handoff struct {
	backend    Backend
	local      *localstore.Store
	log        *logger.Logger
	successURL string
	cancelURL  string
}

// NewHandoff creates a payment handoff.
func NewHandoff(b Backend, local *localstore.Store, log *logger.Logger, successURL, cancelURL string) *Handoff {
	return &Handoff{
		backend:    b,
		local:      local,
		log:        log,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// Book starts the booking flow for an accepted offer. A zero-cost offer
// creates the order directly, bypassing the payment redirect. A paid offer
// persists the pending parameters, opens a checkout session and returns the
// provider URL for the browser to redirect to.
func (h *Handoff) Book(ctx context.Context, params BookingParams) (*Booking, error) {
	amount, err := h.discountedAmount(ctx, params.Amount)
	if err != nil {
		return nil, err
	}
	params.Amount = amount

	orderID := ulid.Make().String()

	if amount == "0.00" {
		order, err := h.backend.CreateOrder(ctx, createOrderRequest(orderID, params))
		if err != nil {
			return nil, fmt.Errorf("create free-tier order: %w", err)
		}
		metrics.OrdersCreated.WithLabelValues("free").Inc()
		return &Booking{OrderID: order.ID, Amount: amount, Order: order}, nil
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode pending order: %w", err)
	}
	if err := h.local.SavePendingOrder(orderID, payload); err != nil {
		return nil, err
	}

	session, err := h.backend.CreateCheckoutSession(ctx, &model.CreateCheckoutSessionRequest{
		OrderID:     orderID,
		Amount:      amount,
		Description: params.Description,
		SuccessURL:  h.successURL + "?orderId=" + orderID,
		CancelURL:   h.cancelURL + "?orderId=" + orderID,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	metrics.CheckoutSessions.Inc()

	return &Booking{OrderID: orderID, Amount: amount, RedirectURL: session.URL}, nil
}

// CompleteSuccess handles the return from the payment provider's success
// route. The contract is existence-check-then-create: if the order already
// exists (a revisit, or a retried redirect) it is returned as-is and no
// duplicate is created. Pending parameters clear only after the order is
// known to exist. The created flag reports whether this call created it.
func (h *Handoff) CompleteSuccess(ctx context.Context, orderID string) (order *model.Order, params BookingParams, created bool, err error) {
	existing, err := h.backend.Order(ctx, orderID)
	if err == nil {
		h.clearPending(orderID)
		return existing, params, false, nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return nil, params, false, fmt.Errorf("check order %s: %w", orderID, err)
	}

	payload, err := h.local.PendingOrder(orderID)
	if err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return nil, params, false, ErrNoPendingOrder
		}
		return nil, params, false, err
	}
	if err := json.Unmarshal(payload, &params); err != nil {
		return nil, params, false, fmt.Errorf("decode pending order %s: %w", orderID, err)
	}

	order, err = h.backend.CreateOrder(ctx, createOrderRequest(orderID, params))
	if err != nil {
		return nil, params, false, fmt.Errorf("create order %s: %w", orderID, err)
	}
	metrics.OrdersCreated.WithLabelValues("paid").Inc()
	h.clearPending(orderID)
	return order, params, true, nil
}

// Cancel handles the return from the provider's cancel route: no order is
// created and the persisted parameters are discarded.
func (h *Handoff) Cancel(orderID string) {
	h.clearPending(orderID)
}

func (h *Handoff) clearPending(orderID string) {
	if err := h.local.DeletePendingOrder(orderID); err != nil {
		// The row is harmless if it lingers; the next success visit finds
		// the existing order first.
		h.log.Warn("failed to clear pending order", zap.String("order_id", orderID), zap.Error(err))
	}
}

// discountedAmount applies the signed-in user's Pro discount, if any. A
// subscription fetch failure degrades to the undiscounted amount.
func (h *Handoff) discountedAmount(ctx context.Context, amount string) (string, error) {
	sub, err := h.backend.Subscription(ctx)
	if err != nil {
		h.log.Warn("subscription status unavailable, skipping discount", zap.Error(err))
		return NormalizeAmount(amount)
	}
	if !sub.IsPro() || sub.DiscountPercent <= 0 {
		return NormalizeAmount(amount)
	}
	return ApplyDiscount(amount, sub.DiscountPercent)
}

func createOrderRequest(orderID string, params BookingParams) *model.CreateOrderRequest {
	return &model.CreateOrderRequest{
		OrderID:         orderID,
		OfferID:         params.OfferID,
		ConversationID:  params.ConversationID,
		StudentID:       params.StudentID,
		DeveloperID:     params.DeveloperID,
		Description:     params.Description,
		Amount:          params.Amount,
		DeliveryDays:    params.DeliveryDays,
		Revisions:       params.Revisions,
		MeetingIncluded: params.MeetingIncluded,
		IdempotencyKey:  orderID,
	}
}
