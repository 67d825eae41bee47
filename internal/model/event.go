package model

import (
	"encoding/json"
	"time"
)

// EventType names a real-time push event. The gateway binds exactly one:
// new-message.
type EventType string

const (
	EventNewMessage EventType = "new-message"
)

// PushEnvelope is the wire format for events on a conversation channel.
type PushEnvelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// HeartbeatEvent keeps a browser-facing SSE connection alive.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent reports a stream-level error to the browser shell.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
