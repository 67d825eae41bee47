// Package store holds the client-side view of the signed-in user's
// conversations: the conversation list and the active conversation's
// ordered message list. It is the single mutable shared structure in the
// gateway; every mutation path (optimistic append, push reconciliation,
// list refresh, deletion) is idempotent with respect to message ids so the
// arrival order of asynchronous events cannot produce inconsistent state.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/pkg/logger"
	"github.com/devlinkhq/client-gateway/pkg/metrics"
)

// Backend is the slice of the REST client the store needs.
type Backend interface {
	Conversations(ctx context.Context) ([]model.Conversation, error)
	Messages(ctx context.Context, peerID string) ([]model.Message, error)
}

// Store is the source of truth for conversation and message state.
type Store struct {
	backend Backend
	log     *logger.Logger

	mu            sync.RWMutex
	userID        string
	conversations []model.Conversation
	listErr       error

	// Active conversation. epoch increments on every selection change so a
	// stale fetch started for a previously selected peer can detect it must
	// not commit.
	activePeer string
	epoch      uint64
	messages   []model.Message
	msgIndex   map[string]int

	watchers    map[int]chan model.Message
	nextWatcher int
}

// New creates an empty store.
func New(backend Backend, log *logger.Logger) *Store {
	return &Store{
		backend:  backend,
		log:      log,
		msgIndex: make(map[string]int),
		watchers: make(map[int]chan model.Message),
	}
}

// SetUser records the signed-in user. Clears all conversation state when
// the user changes.
func (s *Store) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == userID {
		return
	}
	s.userID = userID
	s.conversations = nil
	s.listErr = nil
	s.clearActiveLocked()
}

// UserID returns the signed-in user id.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// LoadConversations replaces the conversation list from the backend. On
// failure the list is left empty and the error is retained as a displayable
// error state; optimistic message state is untouched.
func (s *Store) LoadConversations(ctx context.Context) error {
	convs, err := s.backend.Conversations(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.conversations = nil
		s.listErr = err
		s.log.Warn("conversation list fetch failed", zap.Error(err))
		return err
	}
	s.conversations = convs
	s.listErr = nil
	return nil
}

// Conversations returns a snapshot of the list and the last fetch error.
func (s *Store) Conversations() ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out, s.listErr
}

// Select makes peerID the active conversation, clearing the message list.
// Returns the new selection epoch.
func (s *Store) Select(peerID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activePeer = peerID
	s.epoch++
	s.messages = nil
	s.msgIndex = make(map[string]int)
	return s.epoch
}

// ActivePeer returns the peer of the active conversation, or "".
func (s *Store) ActivePeer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activePeer
}

// LoadMessages selects peerID and replaces the active message list with the
// fetched history. If the selection changed while the fetch was in flight
// the resolved data is dropped instead of overwriting the newer selection.
func (s *Store) LoadMessages(ctx context.Context, peerID string) error {
	epoch := s.Select(peerID)

	msgs, err := s.backend.Messages(ctx, peerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.activePeer != peerID {
		// Superseded by a newer selection; its fetch owns the state now.
		return nil
	}
	if err != nil {
		s.messages = nil
		s.msgIndex = make(map[string]int)
		s.log.Warn("message history fetch failed", zap.String("peer_id", peerID), zap.Error(err))
		return err
	}

	s.messages = nil
	s.msgIndex = make(map[string]int)
	for _, msg := range msgs {
		if _, dup := s.msgIndex[msg.ID]; dup {
			continue
		}
		msg.Pending = false
		s.msgIndex[msg.ID] = len(s.messages)
		s.messages = append(s.messages, msg)
	}
	return nil
}

// Messages returns a snapshot of the active conversation's messages.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Message returns a message from the active conversation by id.
func (s *Store) Message(id string) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.msgIndex[id]
	if !ok {
		return model.Message{}, false
	}
	return s.messages[i], true
}

// AppendOptimistic inserts a locally originated message immediately, before
// server confirmation, so the sender's view never waits on round-trip
// latency. The later confirmation reconciles by id instead of duplicating.
func (s *Store) AppendOptimistic(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.Pending = true
	if _, exists := s.msgIndex[msg.ID]; !exists {
		s.msgIndex[msg.ID] = len(s.messages)
		s.messages = append(s.messages, msg)
	}
	s.updatePreviewLocked(msg.ConversationID, msg)
	s.notifyLocked(msg)
	metrics.OptimisticAppends.Inc()
}

// ReconcileIncoming merges a server-confirmed or push-delivered message.
// If a message with the same id is already present its content is replaced
// (the server version wins) and the pending flag clears; otherwise the
// message is appended in arrival order when it belongs to the active
// conversation. Duplicate deliveries are no-ops beyond the first merge, so
// reconciliation is commutative across the polling and push paths.
func (s *Store) ReconcileIncoming(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.Pending = false
	if i, exists := s.msgIndex[msg.ID]; exists {
		s.messages[i] = msg
		metrics.RecordReconcile("merged")
	} else if s.belongsToActiveLocked(msg) {
		s.msgIndex[msg.ID] = len(s.messages)
		s.messages = append(s.messages, msg)
		metrics.RecordReconcile("appended")
	} else {
		metrics.RecordReconcile("dropped")
	}

	s.updatePreviewLocked(msg.ConversationID, msg)
	s.notifyLocked(msg)
}

// UpdateLastPreview keeps the list view's preview in sync without
// re-fetching the whole conversation list.
func (s *Store) UpdateLastPreview(conversationID string, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatePreviewLocked(conversationID, msg)
}

// DeleteConversation removes a conversation from the list. If it was the
// active conversation the selection and message list clear as well.
func (s *Store) DeleteConversation(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.conversations {
		if s.conversations[i].ID != conversationID {
			continue
		}
		active := s.activePeer != "" && s.conversations[i].PeerOf(s.userID) == s.activePeer
		s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
		if active {
			s.clearActiveLocked()
		}
		return
	}
}

// Watch registers a subscriber for store mutations; used by the SSE stream
// to the browser shell. The returned channel drops events when the
// subscriber lags rather than blocking reconciliation.
func (s *Store) Watch() (int, <-chan model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextWatcher
	s.nextWatcher++
	ch := make(chan model.Message, 32)
	s.watchers[id] = ch
	return id, ch
}

// Unwatch removes a subscriber.
func (s *Store) Unwatch(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.watchers[id]; ok {
		delete(s.watchers, id)
		close(ch)
	}
}

func (s *Store) clearActiveLocked() {
	s.activePeer = ""
	s.epoch++
	s.messages = nil
	s.msgIndex = make(map[string]int)
}

func (s *Store) belongsToActiveLocked(msg model.Message) bool {
	if s.activePeer == "" {
		return false
	}
	return msg.SenderID == s.activePeer || msg.ReceiverID == s.activePeer
}

func (s *Store) updatePreviewLocked(conversationID string, msg model.Message) {
	if conversationID == "" || msg.Kind.Silent() {
		return
	}
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			preview := msg
			s.conversations[i].LastMessage = &preview
			if msg.CreatedAt.After(s.conversations[i].UpdatedAt) {
				s.conversations[i].UpdatedAt = msg.CreatedAt
			}
			return
		}
	}
}

func (s *Store) notifyLocked(msg model.Message) {
	for _, ch := range s.watchers {
		select {
		case ch <- msg:
		default:
		}
	}
}
