package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/db"
)

// ChatRepository handles chat message persistence
type ChatRepository struct {
	baseRepository
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(pool db.DBTX) *ChatRepository {
	return &ChatRepository{baseRepository: newBaseRepository(pool)}
}

// Create stores a message and fills its ID, timestamp and sender name
func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	err := r.conn(ctx).QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO chat_messages (hub_id, sender_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, sender_id, created_at
		)
		SELECT ins.id, ins.created_at, u.name FROM ins JOIN users u ON u.id = ins.sender_id`,
		msg.HubID, msg.SenderID, msg.Content).Scan(&msg.ID, &msg.CreatedAt, &msg.SenderName)
	if err != nil {
		return fmt.Errorf("error creating chat message: %w", err)
	}
	return nil
}

// ListByHub returns up to limit messages older than beforeID (0 = newest),
// in chronological order.
func (r *ChatRepository) ListByHub(ctx context.Context, hubID, beforeID int64, limit int) ([]*models.ChatMessage, error) {
	q := r.sb.Select("c.id", "c.hub_id", "c.sender_id", "u.name", "c.content", "c.created_at").
		From("chat_messages c").
		Join("users u ON u.id = c.sender_id").
		Where(squirrel.Eq{"c.hub_id": hubID})
	if beforeID > 0 {
		q = q.Where(squirrel.Lt{"c.id": beforeID})
	}

	sql, args, err := q.OrderBy("c.id DESC").Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing chat messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.ChatMessage, error) {
		var m models.ChatMessage
		err := row.Scan(&m.ID, &m.HubID, &m.SenderID, &m.SenderName, &m.Content, &m.CreatedAt)
		return &m, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning chat messages: %w", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
