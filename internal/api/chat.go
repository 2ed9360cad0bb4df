// ABOUTME: Chat assistant endpoints of the admin service
// ABOUTME: Sends messages with the long chat timeout and renders markdown replies to HTML

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultChatSession is the session the server uses when none is given.
const DefaultChatSession = "default"

// ChatRequest is the body of POST /v1/chat/message.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// NewChatSessionID returns a fresh conversation id.
func NewChatSessionID() string {
	return uuid.NewString()
}

// SendMessage asks the assistant and waits up to the chat timeout for its reply.
func (c *Client) SendMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("sending message: message is required")
	}
	var resp ChatResponse
	if err := c.post(ctx, "/v1/chat/message", req, &resp, WithTimeout(c.chatTimeout)); err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}
	return &resp, nil
}

// ClearHistory drops the server-side history of a conversation.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	q := url.Values{}
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}
	if err := c.post(ctx, "/v1/chat/clear", nil, nil, WithQuery(q)); err != nil {
		return fmt.Errorf("clearing chat history: %w", err)
	}
	return nil
}

var replyMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderReplyHTML converts an assistant reply from markdown to HTML.
func RenderReplyHTML(reply string) (string, error) {
	var buf bytes.Buffer
	if err := replyMarkdown.Convert([]byte(reply), &buf); err != nil {
		return "", fmt.Errorf("rendering reply: %w", err)
	}
	return buf.String(), nil
}
