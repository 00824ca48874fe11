package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/peerlearn/internal/app/auth"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/websocket"
)

const (
	defaultChatPage = 50
	maxChatPage     = 200
	maxChatLength   = 4000
)

// ChatService defines the interface for hub chat operations
type ChatService interface {
	GetMessages(ctx context.Context, hubID, userID, beforeID int64, limit int) ([]*models.ChatMessage, error)
	SendMessage(ctx context.Context, hubID, userID int64, content string) (*models.ChatMessage, error)
	// PostMessage and IsMember serve the WebSocket handler
	PostMessage(ctx context.Context, hubID, userID int64, content string) error
	IsMember(ctx context.Context, hubID, userID int64) (bool, error)
}

// chatServiceImpl implements ChatService
type chatServiceImpl struct {
	chatRepo     ChatStore
	authzService *auth.AuthorizationService
	broadcaster  websocket.Broadcaster
	logger       zerolog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(
	chatRepo ChatStore,
	authzService *auth.AuthorizationService,
	broadcaster websocket.Broadcaster,
	logger zerolog.Logger,
) ChatService {
	return &chatServiceImpl{
		chatRepo:     chatRepo,
		authzService: authzService,
		broadcaster:  broadcaster,
		logger:       logger,
	}
}

// GetMessages pages backwards through a hub's chat history; members only
func (s *chatServiceImpl) GetMessages(ctx context.Context, hubID, userID, beforeID int64, limit int) ([]*models.ChatMessage, error) {
	if _, err := s.authzService.ValidateMember(ctx, hubID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultChatPage
	}
	if limit > maxChatPage {
		limit = maxChatPage
	}

	msgs, err := s.chatRepo.ListByHub(ctx, hubID, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return msgs, nil
}

// SendMessage stores a message and then broadcasts it to the hub's room.
// Broadcasting is best effort; the stored message is the record.
func (s *chatServiceImpl) SendMessage(ctx context.Context, hubID, userID int64, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewBadRequestError("Message content is required")
	}
	if len(content) > maxChatLength {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("Message exceeds %d characters", maxChatLength))
	}

	if _, err := s.authzService.ValidateMember(ctx, hubID, userID); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		HubID:    hubID,
		SenderID: userID,
		Content:  content,
	}
	if err := s.chatRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store chat message: %w", err)
	}

	s.broadcaster.Broadcast(ctx, &websocket.Message{
		Type:       websocket.MessageTypeChat,
		ID:         msg.ID,
		HubID:      msg.HubID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Content:    msg.Content,
		Timestamp:  msg.CreatedAt,
	})

	s.logger.Debug().Int64("messageID", msg.ID).Int64("hubID", hubID).Msg("Chat message stored")
	return msg, nil
}

// PostMessage is SendMessage for callers that only need the error
func (s *chatServiceImpl) PostMessage(ctx context.Context, hubID, userID int64, content string) error {
	_, err := s.SendMessage(ctx, hubID, userID, content)
	return err
}

// IsMember reports whether the user belongs to the hub
func (s *chatServiceImpl) IsMember(ctx context.Context, hubID, userID int64) (bool, error) {
	_, ok, err := s.authzService.HubRole(ctx, hubID, userID)
	return ok, err
}
