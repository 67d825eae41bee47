// Package service provides the coordination logic between the conversation
// store, the backend client and the realtime adapter.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/devlinkhq/client-gateway/internal/backend"
	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/internal/store"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// Messenger owns the send path: optimistic local append, backend round
// trip, reconciliation of the confirmed record. The user's view never
// waits on round-trip latency; a send failure leaves the optimistic copy
// visible and the user free to retry.
type Messenger struct {
	store   *store.Store
	backend *backend.Client
	log     *logger.Logger
}

// NewMessenger creates a messenger.
func NewMessenger(st *store.Store, bc *backend.Client, log *logger.Logger) *Messenger {
	return &Messenger{store: st, backend: bc, log: log}
}

// SendText sends a plain text message to peerID.
func (m *Messenger) SendText(ctx context.Context, senderID, peerID, body string) (model.Message, error) {
	msg := m.newMessage(senderID, peerID, model.PayloadText, nil)
	msg.Body = body
	return m.send(ctx, msg)
}

// SendOffer embeds an offer into the conversation as an offer-kind message.
func (m *Messenger) SendOffer(ctx context.Context, senderID, peerID string, off model.Offer) (model.Message, error) {
	payload, err := json.Marshal(off)
	if err != nil {
		return model.Message{}, fmt.Errorf("encode offer payload: %w", err)
	}
	msg := m.newMessage(senderID, peerID, model.PayloadOffer, payload)
	return m.send(ctx, msg)
}

// SendAttachment sends a message carrying a file.
func (m *Messenger) SendAttachment(ctx context.Context, senderID, peerID, body, fileName string, file io.Reader) (model.Message, error) {
	msg := m.newMessage(senderID, peerID, model.PayloadAttachment, nil)
	msg.Body = body

	m.store.AppendOptimistic(msg)

	confirmed, err := m.backend.SendAttachment(ctx, &msg, fileName, file)
	if err != nil {
		return msg, err
	}
	m.store.ReconcileIncoming(*confirmed)
	return *confirmed, nil
}

// SendVideoInvite sends a video-call invitation for roomID.
func (m *Messenger) SendVideoInvite(ctx context.Context, senderID, peerID, roomID string) (model.Message, error) {
	payload, err := json.Marshal(model.VideoInvitePayload{RoomID: roomID})
	if err != nil {
		return model.Message{}, fmt.Errorf("encode invite payload: %w", err)
	}
	msg := m.newMessage(senderID, peerID, model.PayloadVideoInvite, payload)
	return m.send(ctx, msg)
}

// SendMarker broadcasts a silent marker message referencing an offer.
// Implements the offer controller's MarkerSender.
func (m *Messenger) SendMarker(ctx context.Context, conversationID, senderID, receiverID string, kind model.PayloadKind, offerID string) error {
	payload, err := json.Marshal(model.MarkerPayload{OfferID: offerID})
	if err != nil {
		return fmt.Errorf("encode marker payload: %w", err)
	}
	msg := m.newMessage(senderID, receiverID, kind, payload)
	msg.ConversationID = conversationID
	_, err = m.send(ctx, msg)
	return err
}

func (m *Messenger) newMessage(senderID, receiverID string, kind model.PayloadKind, payload json.RawMessage) model.Message {
	return model.Message{
		ID:         uuid.Must(uuid.NewV7()).String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Kind:       kind,
		Payload:    payload,
		CreatedAt:  time.Now(),
	}
}

// send appends optimistically, posts to the backend and reconciles the
// confirmed record. On failure the optimistic copy stays visible; the
// confirmation (or the next history fetch) reconciles it later.
func (m *Messenger) send(ctx context.Context, msg model.Message) (model.Message, error) {
	m.store.AppendOptimistic(msg)

	confirmed, err := m.backend.SendMessage(ctx, &msg)
	if err != nil {
		return msg, err
	}
	m.store.ReconcileIncoming(*confirmed)
	return *confirmed, nil
}
