package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/pkg/logger"
	"github.com/devlinkhq/client-gateway/pkg/metrics"
)

// ChannelPrefix is the fixed prefix of per-conversation channel names.
const ChannelPrefix = "private-conversation"

// ErrNotConnected is returned when the push provider is unreachable; the
// caller degrades to polling.
var ErrNotConnected = errors.New("realtime: not connected")

// ChannelName derives the canonical channel for a participant pair. The ids
// are sorted so both participants compute the identical name without a
// negotiation step.
func ChannelName(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return fmt.Sprintf("%s-%s-%s", ChannelPrefix, ids[0], ids[1])
}

// Handler receives each pushed message record.
type Handler func(model.Message)

// Adapter owns at most one channel subscription at a time: acquired when a
// conversation is selected, released before acquiring the next one and on
// teardown. It binds the single new-message event and forwards payloads to
// the handler (the store's reconcile path).
type Adapter struct {
	client *Client
	log    *logger.Logger

	mu      sync.Mutex
	sub     *nats.Subscription
	channel string
}

// NewAdapter creates an adapter over an established connection. client may
// be nil, in which case every Switch returns ErrNotConnected.
func NewAdapter(client *Client, log *logger.Logger) *Adapter {
	return &Adapter{client: client, log: log}
}

// Switch subscribes to the channel for the (selfID, peerID) pair, releasing
// any previously held subscription first. Calling Switch for the channel
// already held is a no-op.
func (a *Adapter) Switch(selfID, peerID string, handler Handler) error {
	if a.client == nil || a.client.conn == nil {
		return ErrNotConnected
	}

	channel := ChannelName(selfID, peerID)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sub != nil && a.channel == channel && a.sub.IsValid() {
		return nil
	}
	a.releaseLocked()

	sub, err := a.client.conn.Subscribe(channel, func(m *nats.Msg) {
		a.dispatch(m.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	a.sub = sub
	a.channel = channel
	metrics.RealtimeSubscriptionActive.Set(1)
	a.log.Debug("realtime channel acquired", zap.String("channel", channel))
	return nil
}

// Channel returns the currently held channel name, or "".
func (a *Adapter) Channel() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.channel
}

// Release unsubscribes from the current channel, if any.
func (a *Adapter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
}

// Close releases the subscription. The underlying connection is owned by
// the Client and closed separately.
func (a *Adapter) Close() {
	a.Release()
}

func (a *Adapter) releaseLocked() {
	if a.sub == nil {
		return
	}
	if err := a.sub.Unsubscribe(); err != nil {
		a.log.Warn("unsubscribe failed", zap.String("channel", a.channel), zap.Error(err))
	}
	a.sub = nil
	a.channel = ""
	metrics.RealtimeSubscriptionActive.Set(0)
}

// dispatch decodes a push envelope and forwards new-message payloads. Other
// event types and malformed envelopes are counted and dropped.
func (a *Adapter) dispatch(data []byte, handler Handler) {
	var envelope model.PushEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		a.log.Warn("malformed push envelope", zap.Error(err))
		metrics.RealtimeEvents.WithLabelValues("malformed").Inc()
		return
	}

	metrics.RealtimeEvents.WithLabelValues(string(envelope.Event)).Inc()
	if envelope.Event != model.EventNewMessage {
		return
	}

	var msg model.Message
	if err := json.Unmarshal(envelope.Data, &msg); err != nil {
		a.log.Warn("malformed push message", zap.Error(err))
		return
	}
	handler(msg)
}
