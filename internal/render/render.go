// Package render maps messages to display descriptors for the browser
// shell. Rendering is pure: no store mutation, no network, and re-rendering
// the same message yields an identical descriptor. Interactive elements are
// emitted as structured action descriptors interpreted by the owning
// component; rendered content never reaches back into global scope.
package render

import (
	"encoding/json"

	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/internal/offer"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// ViewKind names what the browser shell should paint for a message.
type ViewKind string

const (
	ViewCancellation ViewKind = "cancellation"
	ViewWithdrawal   ViewKind = "withdrawal"
	ViewVideoInvite  ViewKind = "video_invite"
	ViewOfferCard    ViewKind = "offer_card"
	ViewAttachment   ViewKind = "attachment"
	ViewText         ViewKind = "text"
	// ViewSilent marks messages that must not be painted at all.
	ViewSilent ViewKind = "silent"
)

// ActionType names an interaction a view exposes.
type ActionType string

const (
	ActionAcceptOffer ActionType = "accept-offer"
	ActionJoinRoom    ActionType = "join-room"
)

// Action is a structured interaction descriptor. The shell reports it back
// to the gateway verbatim; it carries no callable state.
type Action struct {
	Type      ActionType `json:"type"`
	MessageID string     `json:"message_id"`
	OfferID   string     `json:"offer_id,omitempty"`
	RoomID    string     `json:"room_id,omitempty"`
}

// OfferCard is the displayable shape of an embedded offer.
type OfferCard struct {
	OfferID         string           `json:"offer_id"`
	Description     string           `json:"description"`
	Amount          string           `json:"amount"`
	DeliveryDays    int              `json:"delivery_days"`
	Revisions       int              `json:"revisions"`
	MeetingIncluded bool             `json:"meeting_included"`
	State           model.OfferState `json:"state"`
}

// View is the display descriptor for one message.
type View struct {
	MessageID  string                   `json:"message_id"`
	SenderID   string                   `json:"sender_id"`
	Own        bool                     `json:"own"`
	Kind       ViewKind                 `json:"kind"`
	Text       string                   `json:"text,omitempty"`
	Offer      *OfferCard               `json:"offer,omitempty"`
	RoomID     string                   `json:"room_id,omitempty"`
	Attachment *model.AttachmentPayload `json:"attachment,omitempty"`
	Actions    []Action                 `json:"actions,omitempty"`
	Pending    bool                     `json:"pending,omitempty"`
}

// StateFunc derives the current lifecycle state of an offer id.
type StateFunc func(offerID string) model.OfferState

// Render maps a message to its view from viewerID's perspective. Dispatch
// follows a fixed precedence: cancellation, withdrawal, video invite, offer
// card, attachment, plain text; first match wins.
func Render(msg model.Message, viewerID string, state StateFunc, log *logger.Logger) View {
	view := View{
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Own:       msg.SenderID == viewerID,
		Pending:   msg.Pending,
	}

	switch msg.Kind {
	case model.PayloadCancellation:
		view.Kind = ViewCancellation
		var payload model.CancellationPayload
		_ = json.Unmarshal(msg.Payload, &payload)
		view.Text = "Meeting cancelled"
		if payload.Reason != "" {
			view.Text = "Meeting cancelled: " + payload.Reason
		}
		view.RoomID = payload.RoomID

	case model.PayloadWithdrawal:
		view.Kind = ViewWithdrawal
		var marker model.MarkerPayload
		_ = json.Unmarshal(msg.Payload, &marker)
		view.Text = "Offer withdrawn"
		if marker.OfferID != "" {
			view.Offer = &OfferCard{OfferID: marker.OfferID, State: model.OfferWithdrawn}
		}

	case model.PayloadVideoInvite:
		view.Kind = ViewVideoInvite
		var payload model.VideoInvitePayload
		_ = json.Unmarshal(msg.Payload, &payload)
		view.Text = "Video call invitation"
		view.RoomID = payload.RoomID
		if payload.RoomID != "" {
			view.Actions = append(view.Actions, Action{
				Type:      ActionJoinRoom,
				MessageID: msg.ID,
				RoomID:    payload.RoomID,
			})
		}

	case model.PayloadOffer:
		view.Kind = ViewOfferCard
		params := offer.ExtractParams(msg.Payload, log)
		offerID := params.OfferID
		if offerID == "" {
			offerID = msg.ID
		}
		card := &OfferCard{
			OfferID:         offerID,
			Description:     params.Description,
			Amount:          params.Amount,
			DeliveryDays:    params.DeliveryDays,
			Revisions:       params.Revisions,
			MeetingIncluded: params.MeetingIncluded,
			State:           state(offerID),
		}
		view.Offer = card
		// The accept control appears only for the receiving party and only
		// while the offer is open; never for the offer's own sender.
		if card.State == model.OfferOpen && msg.ReceiverID == viewerID {
			view.Actions = append(view.Actions, Action{
				Type:      ActionAcceptOffer,
				MessageID: msg.ID,
				OfferID:   offerID,
			})
		}

	case model.PayloadAttachment:
		view.Kind = ViewAttachment
		var payload model.AttachmentPayload
		if err := json.Unmarshal(msg.Payload, &payload); err == nil {
			view.Attachment = &payload
		}
		view.Text = msg.Body

	default:
		if msg.Kind.Silent() {
			view.Kind = ViewSilent
			return view
		}
		view.Kind = ViewText
		view.Text = msg.Body
	}

	return view
}

// RenderAll maps a message slice, dropping silent markers.
func RenderAll(msgs []model.Message, viewerID string, state StateFunc, log *logger.Logger) []View {
	views := make([]View, 0, len(msgs))
	for _, msg := range msgs {
		view := Render(msg, viewerID, state, log)
		if view.Kind == ViewSilent {
			continue
		}
		views = append(views, view)
	}
	return views
}
