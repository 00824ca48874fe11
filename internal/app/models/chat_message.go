package models

import "time"

// ChatMessage represents a message in a hub chat room
type ChatMessage struct {
	ID         int64     `json:"id" db:"id"`
	HubID      int64     `json:"hubId" db:"hub_id"`
	SenderID   int64     `json:"senderId" db:"sender_id"`
	SenderName string    `json:"senderName" db:"name"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
