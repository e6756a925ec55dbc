package models

import "time"

// ChatMessage is a stored chat message as returned by GET /api/chat/messages.
// A nil RecipientID means the message was addressed to all operators.
type ChatMessage struct {
	ID          string    `json:"id"`
	SenderID    *string   `json:"sender_id"`
	RecipientID *string   `json:"recipient_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
