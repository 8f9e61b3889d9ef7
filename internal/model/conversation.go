// Package model defines data structures for the coaching service.
package model

import (
	"time"
)

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	StatusActive   ConversationStatus = "active"
	StatusArchived ConversationStatus = "archived"
)

// Valid reports whether s is a known status.
func (s ConversationStatus) Valid() bool {
	return s == StatusActive || s == StatusArchived
}

// Conversation is a persisted coaching conversation. Messages is the
// authoritative log; MessageCount is kept equal to len(Messages) by the
// service layer.
type Conversation struct {
	ID           string             `json:"id"`
	UserID       string             `json:"userId"`
	Topic        string             `json:"topic"`
	Messages     []Message          `json:"messages"`
	MessageCount int                `json:"messageCount"`
	Status       ConversationStatus `json:"status"`
	IsStarred    bool               `json:"isStarred"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Topic    string    `json:"topic" validate:"required,max=128"`
	Messages []Message `json:"messages" validate:"omitempty,dive"`
}

// UpdateConversationRequest is a partial update. Nil fields are left alone.
type UpdateConversationRequest struct {
	Topic     *string             `json:"topic,omitempty" validate:"omitempty,min=1,max=128"`
	Status    *ConversationStatus `json:"status,omitempty" validate:"omitempty,oneof=active archived"`
	IsStarred *bool               `json:"isStarred,omitempty"`
	Messages  []Message           `json:"messages,omitempty" validate:"omitempty,dive"`
}

// AppendTurnRequest appends a completed turn to a conversation.
type AppendTurnRequest struct {
	Messages []Message `json:"messages" validate:"required,min=1,max=2,dive"`
}

// ConversationFilter narrows a conversation listing.
type ConversationFilter struct {
	Status  ConversationStatus
	Topic   string
	Search  string
	Starred *bool
	Limit   int
	Offset  int
}

// ConversationSummary is a listing entry without the message body.
type ConversationSummary struct {
	ID           string             `json:"id"`
	Topic        string             `json:"topic"`
	MessageCount int                `json:"messageCount"`
	Status       ConversationStatus `json:"status"`
	IsStarred    bool               `json:"isStarred"`
	LastMessage  *Message           `json:"lastMessage,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// Summary returns the listing view of c.
func (c *Conversation) Summary() ConversationSummary {
	s := ConversationSummary{
		ID:           c.ID,
		Topic:        c.Topic,
		MessageCount: c.MessageCount,
		Status:       c.Status,
		IsStarred:    c.IsStarred,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if n := len(c.Messages); n > 0 {
		last := c.Messages[n-1]
		s.LastMessage = &last
	}
	return s
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int                   `json:"total"`
	HasMore       bool                  `json:"hasMore"`
}
