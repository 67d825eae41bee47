package backend

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/devlinkhq/client-gateway/internal/model"
)

// Conversations lists all conversations for the signed-in user.
func (c *Client) Conversations(ctx context.Context) ([]model.Conversation, error) {
	var resp model.ListConversationsResponse
	if err := c.get(ctx, "/conversations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// DeleteConversation removes a conversation for the signed-in user.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/conversations/"+url.PathEscape(conversationID), nil, nil, nil)
}

// Messages fetches the full message history between the signed-in user and
// peerID, oldest first.
func (c *Client) Messages(ctx context.Context, peerID string) ([]model.Message, error) {
	var resp struct {
		Messages []model.Message `json:"messages"`
	}
	if err := c.get(ctx, "/conversations/with/"+url.PathEscape(peerID)+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage posts a message. The backend echoes the confirmed record back
// with the same client-assigned id.
func (c *Client) SendMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	var confirmed model.Message
	if err := c.do(ctx, http.MethodPost, "/messages", nil, msg, &confirmed); err != nil {
		return nil, err
	}
	return &confirmed, nil
}

// SendAttachment posts a message with a file attachment as multipart form
// data. The message JSON rides along as a form field.
func (c *Client) SendAttachment(ctx context.Context, msg *model.Message, fileName string, file io.Reader) (*model.Message, error) {
	fields := map[string]string{
		"id":              msg.ID,
		"conversation_id": msg.ConversationID,
		"sender_id":       msg.SenderID,
		"receiver_id":     msg.ReceiverID,
		"body":            msg.Body,
	}
	var confirmed model.Message
	if err := c.upload(ctx, "/messages/attachments", fields, "file", fileName, file, &confirmed); err != nil {
		return nil, err
	}
	return &confirmed, nil
}
