package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/capitalize-ai/leadership-coach/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for requests that fail business rules.
	ErrInvalidInput = errors.New("invalid input")
)

// ConversationRepository stores whole conversation records.
type ConversationRepository interface {
	Get(ctx context.Context, userID, id string) (*model.Conversation, error)
	Put(ctx context.Context, conv *model.Conversation) error
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string) ([]*model.Conversation, error)
}

// AssessmentRepository stores one PersonalizationContext per user.
type AssessmentRepository interface {
	Get(ctx context.Context, userID string) (*model.PersonalizationContext, error)
	Put(ctx context.Context, p *model.PersonalizationContext) error
	Delete(ctx context.Context, userID string) error
}

// EventPublisher receives conversation lifecycle events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *model.ConversationEvent) error
}

type userKey struct {
	userID string
	id     string
}

// MemoryConversations is an in-process ConversationRepository.
type MemoryConversations struct {
	mu    sync.RWMutex
	items map[userKey]*model.Conversation
}

// NewMemoryConversations creates an empty repository.
func NewMemoryConversations() *MemoryConversations {
	return &MemoryConversations{items: make(map[userKey]*model.Conversation)}
}

func (m *MemoryConversations) Get(ctx context.Context, userID, id string) (*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.items[userKey{userID, id}]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneConversation(conv), nil
}

func (m *MemoryConversations) Put(ctx context.Context, conv *model.Conversation) error {
	m.mu.Lock()
	m.items[userKey{conv.UserID, conv.ID}] = cloneConversation(conv)
	m.mu.Unlock()
	return nil
}

func (m *MemoryConversations) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := userKey{userID, id}
	if _, ok := m.items[k]; !ok {
		return ErrNotFound
	}
	delete(m.items, k)
	return nil
}

func (m *MemoryConversations) List(ctx context.Context, userID string) ([]*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Conversation
	for k, conv := range m.items {
		if k.userID == userID {
			out = append(out, cloneConversation(conv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryAssessments is an in-process AssessmentRepository.
type MemoryAssessments struct {
	mu    sync.RWMutex
	items map[string]model.PersonalizationContext
}

// NewMemoryAssessments creates an empty repository.
func NewMemoryAssessments() *MemoryAssessments {
	return &MemoryAssessments{items: make(map[string]model.PersonalizationContext)}
}

func (m *MemoryAssessments) Get(ctx context.Context, userID string) (*model.PersonalizationContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.items[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryAssessments) Put(ctx context.Context, p *model.PersonalizationContext) error {
	m.mu.Lock()
	m.items[p.UserID] = *p
	m.mu.Unlock()
	return nil
}

func (m *MemoryAssessments) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[userID]; !ok {
		return ErrNotFound
	}
	delete(m.items, userID)
	return nil
}

func cloneConversation(c *model.Conversation) *model.Conversation {
	cp := *c
	cp.Messages = append([]model.Message(nil), c.Messages...)
	return &cp
}
