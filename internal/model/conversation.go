package model

import (
	"time"
)

// Conversation represents a thread between a student and a developer.
// Participants holds the pair of user identifiers; order is as the backend
// returned them, not canonical.
type Conversation struct {
	ID           string    `json:"id"`
	Participants [2]string `json:"participants"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PeerOf returns the other participant from the given user's point of view.
// Returns "" if userID is not a participant.
func (c *Conversation) PeerOf(userID string) string {
	switch userID {
	case c.Participants[0]:
		return c.Participants[1]
	case c.Participants[1]:
		return c.Participants[0]
	}
	return ""
}

// Has reports whether userID is one of the two participants.
func (c *Conversation) Has(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
