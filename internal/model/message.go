// Package model defines data structures for the DevLink client gateway.
package model

import (
	"encoding/json"
	"time"
)

// PayloadKind tags the variant carried by a message. Exactly one kind is
// ever true for a given message; the renderer dispatches on it.
type PayloadKind string

const (
	PayloadText         PayloadKind = "text"
	PayloadOffer        PayloadKind = "offer"
	PayloadVideoInvite  PayloadKind = "video_invite"
	PayloadCancellation PayloadKind = "meeting_cancelled"
	PayloadWithdrawal   PayloadKind = "offer_withdrawn"
	PayloadAcceptance   PayloadKind = "offer_accepted"
	PayloadAttachment   PayloadKind = "attachment"
)

// Silent reports whether messages of this kind are markers that signal a
// state change to the counterparty's client and are never painted as chat
// bubbles on their own.
func (k PayloadKind) Silent() bool {
	return k == PayloadAcceptance
}

// Message represents a single conversation message. Identity for
// deduplication is the ID field: the client assigns it on send and the
// backend echoes it back, so an optimistic copy and its later server/push
// confirmation reconcile instead of duplicating.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	SenderID       string          `json:"sender_id"`
	ReceiverID     string          `json:"receiver_id"`
	Kind           PayloadKind     `json:"kind"`
	Body           string          `json:"body,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`

	// Pending is local-only: true while the message has been appended
	// optimistically and the server confirmation has not arrived yet.
	Pending bool `json:"pending,omitempty"`
}

// MarkerPayload is the payload of withdrawal and acceptance markers. It
// references the offer the marker is about.
type MarkerPayload struct {
	OfferID string `json:"offer_id"`
}

// VideoInvitePayload is the payload of a video-call invitation.
type VideoInvitePayload struct {
	RoomID string `json:"room_id"`
}

// CancellationPayload is the payload of a meeting-cancellation notice.
type CancellationPayload struct {
	RoomID string `json:"room_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// AttachmentPayload references an uploaded file.
type AttachmentPayload struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
	Size     int64  `json:"size,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// SendMessageRequest is the gateway-local request to send a text message.
type SendMessageRequest struct {
	Body string `json:"body"`
}

// ListMessagesResponse is the response for the active conversation's
// message history.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	PeerID   string    `json:"peer_id"`
}
