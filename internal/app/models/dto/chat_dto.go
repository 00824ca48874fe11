package dto

// SendMessageRequest posts a chat message to a hub
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=4000"`
}
