package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrMalformedFrame = errors.New("malformed chat frame")

// InboundFrame is a message pushed by the chat endpoint. Only sender_id and
// message are guaranteed; the backend usually adds id, recipient_id and
// created_at.
type InboundFrame struct {
	ID          string    `json:"id,omitempty"`
	SenderID    string    `json:"sender_id"`
	RecipientID *string   `json:"recipient_id,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// Envelope is an outbound message.
type Envelope struct {
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message"`
}

// DecodeInbound parses a text frame. A frame without sender_id is rejected.
func DecodeInbound(data []byte) (InboundFrame, error) {
	var f struct {
		ID          string    `json:"id"`
		SenderID    *string   `json:"sender_id"`
		RecipientID *string   `json:"recipient_id"`
		Message     string    `json:"message"`
		CreatedAt   time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return InboundFrame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.SenderID == nil || *f.SenderID == "" {
		return InboundFrame{}, fmt.Errorf("%w: missing sender_id", ErrMalformedFrame)
	}
	return InboundFrame{
		ID:          f.ID,
		SenderID:    *f.SenderID,
		RecipientID: f.RecipientID,
		Message:     f.Message,
		CreatedAt:   f.CreatedAt,
	}, nil
}
