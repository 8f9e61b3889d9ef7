package model

import (
	"time"
)

// StreamEvent is the payload of one SSE data frame. Exactly one field is set.
type StreamEvent struct {
	Delta     *string `json:"delta,omitempty"`
	Completed bool    `json:"completed,omitempty"`
	Error     *string `json:"error,omitempty"`
}

// DeltaEvent builds a {"delta": text} payload.
func DeltaEvent(text string) StreamEvent {
	return StreamEvent{Delta: &text}
}

// CompletedEvent builds a {"completed": true} payload.
func CompletedEvent() StreamEvent {
	return StreamEvent{Completed: true}
}

// ErrorEvent builds a {"error": msg} payload.
func ErrorEvent(msg string) StreamEvent {
	return StreamEvent{Error: &msg}
}

// DoneSentinel is the payload of the terminal frame.
const DoneSentinel = "[DONE]"

// EventType represents the type of conversation lifecycle event.
type EventType string

const (
	EventTypeCreated      EventType = "created"
	EventTypeUpdated      EventType = "updated"
	EventTypeTurnAppended EventType = "turn_appended"
	EventTypeArchived     EventType = "archived"
	EventTypeDeleted      EventType = "deleted"
)

// ConversationEvent records a change to a conversation.
type ConversationEvent struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
	Type           EventType      `json:"type"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
