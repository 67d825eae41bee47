package model

import (
	"time"
)

// OrderStatus is the backend-authoritative lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderDelivered  OrderStatus = "delivered"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// orderTransitions lists the forward transitions a client action may
// request. Cancellation is allowed from any non-terminal state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderInProgress, OrderCancelled},
	OrderInProgress: {OrderDelivered, OrderCancelled},
	OrderDelivered:  {OrderCompleted, OrderInProgress, OrderCancelled},
}

// ValidOrderTransition reports whether a status update from "from" to "to"
// is one the client should request. The backend has final say; this only
// blocks requests that can never succeed.
func ValidOrderTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is the backend record created once an offer is accepted and payment
// (or free-tier confirmation) completes.
type Order struct {
	ID              string      `json:"id"`
	OfferID         string      `json:"offer_id"`
	ConversationID  string      `json:"conversation_id,omitempty"`
	StudentID       string      `json:"student_id"`
	DeveloperID     string      `json:"developer_id"`
	Description     string      `json:"description"`
	Amount          string      `json:"amount"`
	DeliveryDays    int         `json:"delivery_days"`
	Revisions       int         `json:"revisions"`
	MeetingIncluded bool        `json:"meeting_included"`
	Status          OrderStatus `json:"status"`
	Feedback        []Feedback  `json:"feedback,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Feedback is a review authored by one party of a completed order.
type Feedback struct {
	AuthorID  string    `json:"author_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateOrderRequest is sent to the backend to create an order. The
// idempotency key is client-generated so a retried create cannot produce a
// duplicate.
type CreateOrderRequest struct {
	OrderID         string `json:"order_id,omitempty"`
	OfferID         string `json:"offer_id"`
	ConversationID  string `json:"conversation_id,omitempty"`
	StudentID       string `json:"student_id"`
	DeveloperID     string `json:"developer_id"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	DeliveryDays    int    `json:"delivery_days"`
	Revisions       int    `json:"revisions"`
	MeetingIncluded bool   `json:"meeting_included"`
	IdempotencyKey  string `json:"idempotency_key,omitempty"`
}

// UpdateOrderStatusRequest requests an order status transition.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// SubmitFeedbackRequest submits a review for an order.
type SubmitFeedbackRequest struct {
	Rating  int      `json:"rating"`
	Comment string   `json:"comment,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}
