package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/backend"
	"github.com/devlinkhq/client-gateway/internal/store"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// ConversationHandler serves the inbox list.
type ConversationHandler struct {
	store   *store.Store
	backend *backend.Client
	logger  *logger.Logger
}

// NewConversationHandler creates a conversation handler.
func NewConversationHandler(st *store.Store, bc *backend.Client, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{store: st, backend: bc, logger: log}
}

// List handles GET /api/v1/conversations. The store is refreshed from the
// backend; on fetch failure the response still carries the (empty) list
// plus an error the shell shows as a dismissible alert with a retry.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.store.LoadConversations(r.Context()); err != nil {
		h.logger.Warn("conversation refresh failed", zap.Error(err))
	}

	convs, loadErr := h.store.Conversations()
	resp := map[string]any{
		"conversations": convs,
		"total":         len(convs),
	}
	if loadErr != nil {
		resp["error"] = "could not load conversations"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/v1/conversations/{id}. The conversation is
// removed from the backend and the local list; if it was selected the
// active selection and message list clear.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation id is required")
		return
	}

	if err := h.backend.DeleteConversation(r.Context(), conversationID); err != nil {
		writeBackendError(w, err, "failed to delete conversation")
		return
	}

	h.store.DeleteConversation(conversationID)
	w.WriteHeader(http.StatusNoContent)
}
