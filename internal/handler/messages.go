package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/middleware"
	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/internal/offer"
	"github.com/devlinkhq/client-gateway/internal/realtime"
	"github.com/devlinkhq/client-gateway/internal/render"
	"github.com/devlinkhq/client-gateway/internal/service"
	"github.com/devlinkhq/client-gateway/internal/store"
	"github.com/devlinkhq/client-gateway/pkg/logger"
	"github.com/devlinkhq/client-gateway/pkg/metrics"
)

// maxAttachmentSize bounds multipart uploads.
const maxAttachmentSize = 25 << 20

// MessageHandler serves the active conversation: selecting it (history
// fetch plus channel subscription), sending into it and streaming live
// updates to the browser shell.
type MessageHandler struct {
	store      *store.Store
	messenger  *service.Messenger
	adapter    *realtime.Adapter
	controller *offer.Controller
	logger     *logger.Logger
}

// NewMessageHandler creates a message handler.
func NewMessageHandler(
	st *store.Store,
	messenger *service.Messenger,
	adapter *realtime.Adapter,
	controller *offer.Controller,
	log *logger.Logger,
) *MessageHandler {
	return &MessageHandler{
		store:      st,
		messenger:  messenger,
		adapter:    adapter,
		controller: controller,
		logger:     log,
	}
}

// List handles GET /api/v1/conversations/with/{peerId}/messages.
// Selecting a conversation acquires its push channel (releasing the
// previous one) and replaces the message list from the backend. A push
// subscription failure degrades to polling; the history fetch remains the
// authoritative resync path.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	peerID := chi.URLParam(r, "peerId")

	if err := middleware.ValidateUserID(peerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.adapter.Switch(userID, peerID, h.onPush); err != nil {
		if !errors.Is(err, realtime.ErrNotConnected) {
			h.logger.Warn("channel subscription failed", zap.String("peer_id", peerID), zap.Error(err))
		}
	}

	if err := h.store.LoadMessages(ctx, peerID); err != nil {
		writeBackendError(w, err, "failed to load messages")
		return
	}

	views := render.RenderAll(h.store.Messages(), userID, h.controller.State, h.logger)
	writeJSON(w, http.StatusOK, map[string]any{
		"peer_id":  peerID,
		"messages": views,
	})
}

// onPush is the single bound event path from the realtime channel: the
// store reconciles (dedup by id) and the offer controller applies any
// silent marker the message carries.
func (h *MessageHandler) onPush(msg model.Message) {
	h.store.ReconcileIncoming(msg)
	h.controller.Observe(msg)
}

// Send handles POST /api/v1/conversations/with/{peerId}/messages. Accepts
// JSON for text or multipart form data for attachments. The message is
// appended optimistically before the backend round trip; a failure leaves
// the optimistic copy visible and the user free to retry.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	peerID := chi.URLParam(r, "peerId")

	if err := middleware.ValidateUserID(peerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var sent model.Message
	var err error

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		sent, err = h.sendAttachment(r, userID, peerID)
	} else {
		var req model.SendMessageRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if validateErr := middleware.ValidateMessageContent(req.Body); validateErr != nil {
			writeError(w, http.StatusBadRequest, validateErr.Error())
			return
		}
		sent, err = h.messenger.SendText(ctx, userID, peerID, req.Body)
	}

	if err != nil {
		var badRequest *badRequestError
		if errors.As(err, &badRequest) {
			writeError(w, http.StatusBadRequest, badRequest.msg)
			return
		}
		h.logger.Warn("message send failed", zap.String("peer_id", peerID), zap.Error(err))
		writeBackendError(w, err, "failed to send message")
		return
	}

	writeJSON(w, http.StatusCreated, render.Render(sent, userID, h.controller.State, h.logger))
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func (h *MessageHandler) sendAttachment(r *http.Request, userID, peerID string) (model.Message, error) {
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		return model.Message{}, &badRequestError{msg: "invalid multipart body"}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return model.Message{}, &badRequestError{msg: "file part is required"}
	}
	defer file.Close()

	return h.messenger.SendAttachment(r.Context(), userID, peerID, r.FormValue("body"), header.Filename, file)
}

// Stream handles GET /api/v1/conversations/with/{peerId}/stream: an SSE
// feed of store mutations so the shell repaints without polling.
func (h *MessageHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	peerID := chi.URLParam(r, "peerId")

	if err := middleware.ValidateUserID(peerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	watcherID, updates := h.store.Watch()
	defer h.store.Unwatch(watcherID)

	sendSSEEvent(w, flusher, "connected", map[string]string{"peer_id": peerID})

	// Replay current state so the shell starts from a consistent view.
	for _, view := range render.RenderAll(h.store.Messages(), userID, h.controller.State, h.logger) {
		sendSSEEvent(w, flusher, "message", view)
	}

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE client disconnected", zap.String("peer_id", peerID))
			return

		case msg, open := <-updates:
			if !open {
				return
			}
			view := render.Render(msg, userID, h.controller.State, h.logger)
			if view.Kind == render.ViewSilent {
				// A marker changed offer state; tell the shell to repaint.
				sendSSEEvent(w, flusher, "refresh", map[string]string{"message_id": msg.ID})
				continue
			}
			sendSSEEvent(w, flusher, "message", view)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{Timestamp: time.Now()})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
