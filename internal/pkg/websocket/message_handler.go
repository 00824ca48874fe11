package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// MessageSink persists a message posted by a client and broadcasts it.
// REST and WebSocket posts go through the same sink.
type MessageSink interface {
	PostMessage(ctx context.Context, hubID, userID int64, content string) error
}

// MembershipChecker decides who may open a hub chat connection
type MembershipChecker interface {
	IsMember(ctx context.Context, hubID, userID int64) (bool, error)
}

var (
	errMalformedMessage = errors.New("malformed message")
	errEmptyMessage     = errors.New("message content is empty")
)

// inbound is what a client sends
type inbound struct {
	Content string `json:"content"`
}

func handleInbound(ctx context.Context, sink MessageSink, hubID, userID int64, raw []byte) error {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return errMalformedMessage
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return errEmptyMessage
	}

	// Sender and room come from the connection, never from the payload.
	return sink.PostMessage(ctx, hubID, userID, content)
}
