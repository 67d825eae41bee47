package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/devlinkhq/client-gateway/internal/model"
)

// CreateOffer registers an offer record with the backend. The offer also
// travels through the conversation as an offer-kind message; the backend
// record exists so orders can reference it.
func (c *Client) CreateOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error) {
	var created model.Offer
	if err := c.do(ctx, http.MethodPost, "/offers", nil, offer, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateOrder creates an order from an accepted offer.
func (c *Client) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	var order model.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Order fetches an order by id; ErrNotFound when it does not exist yet.
func (c *Client) Order(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	if err := c.get(ctx, "/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Orders lists the signed-in user's orders for the given role side.
func (c *Client) Orders(ctx context.Context, role model.Role) ([]model.Order, error) {
	query := url.Values{}
	if role != "" {
		query.Set("role", string(role))
	}
	var resp struct {
		Orders []model.Order `json:"orders"`
	}
	if err := c.get(ctx, "/orders", query, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// UpdateOrderStatus requests an order status transition.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	var order model.Order
	req := model.UpdateOrderStatusRequest{Status: status}
	if err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/status", nil, &req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SubmitFeedback submits a review for an order.
func (c *Client) SubmitFeedback(ctx context.Context, orderID string, req *model.SubmitFeedbackRequest) error {
	return c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/feedback", nil, req, nil)
}

// CreateCheckoutSession asks the backend to open a payment session with the
// external provider.
func (c *Client) CreateCheckoutSession(ctx context.Context, req *model.CreateCheckoutSessionRequest) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/payments/checkout-session", nil, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Subscription fetches the signed-in user's subscription status.
func (c *Client) Subscription(ctx context.Context) (*model.Subscription, error) {
	var sub model.Subscription
	if err := c.get(ctx, "/subscription", nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscriptionCheckout opens a payment session for the Pro upgrade.
func (c *Client) CreateSubscriptionCheckout(ctx context.Context, successURL, cancelURL string) (*model.CheckoutSession, error) {
	req := struct {
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	}{successURL, cancelURL}
	var session model.CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/subscription/checkout-session", nil, &req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SubmitComplaint files a complaint.
func (c *Client) SubmitComplaint(ctx context.Context, req *model.ComplaintRequest) error {
	return c.do(ctx, http.MethodPost, "/complaints", nil, req, nil)
}

// RoomToken fetches a short-lived, server-issued token for joining a video
// room.
func (c *Client) RoomToken(ctx context.Context, roomID string) (*model.RoomToken, error) {
	var token model.RoomToken
	if err := c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/token", nil, nil, &token); err != nil {
		return nil, err
	}
	return &token, nil
}
