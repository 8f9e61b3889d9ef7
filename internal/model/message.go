package model

import (
	"time"
)

// Sender identifies who wrote a persisted message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one persisted element of a conversation. Immutable once written.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender" validate:"required,oneof=user ai"`
	Text      string    `json:"text" validate:"required"`
	Timestamp time.Time `json:"timestamp"`
}
