package model

// OfferState is the client-visible lifecycle state of an offer.
type OfferState string

const (
	OfferOpen      OfferState = "open"
	OfferAccepted  OfferState = "accepted"
	OfferWithdrawn OfferState = "withdrawn"
)

// Offer is a priced proposal for work, carried as the payload of an
// offer-kind message. State is derived, not stored here: the offer
// lifecycle controller merges the payload with locally observed markers.
type Offer struct {
	ID              string `json:"id"`
	ConversationID  string `json:"conversation_id,omitempty"`
	SenderID        string `json:"sender_id"`
	ReceiverID      string `json:"receiver_id"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	DeliveryDays    int    `json:"delivery_days"`
	Revisions       int    `json:"revisions"`
	MeetingIncluded bool   `json:"meeting_included"`
}

// IsFree reports whether the offer carries no charge.
func (o *Offer) IsFree() bool {
	return o.Amount == "" || o.Amount == "0" || o.Amount == "0.00"
}

// CreateOfferRequest is the gateway-local request to send an offer into a
// conversation.
type CreateOfferRequest struct {
	PeerID          string `json:"peer_id"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	DeliveryDays    int    `json:"delivery_days"`
	Revisions       int    `json:"revisions"`
	MeetingIncluded bool   `json:"meeting_included"`
}
