// Package service provides business logic for the coaching service.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/pkg/logger"
	"github.com/capitalize-ai/leadership-coach/pkg/metrics"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ConversationService handles conversation operations. Every write goes
// through it so MessageCount always equals len(Messages).
type ConversationService struct {
	repo      ConversationRepository
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time

	// mu serializes read-modify-write cycles against the repository.
	mu sync.Mutex
}

// NewConversationService creates a new conversation service. publisher may be
// nil.
func NewConversationService(repo ConversationRepository, publisher EventPublisher, log *logger.Logger) *ConversationService {
	return &ConversationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.OrGlobal(log),
		now:       time.Now,
	}
}

// Create creates a new conversation owned by userID.
func (s *ConversationService) Create(ctx context.Context, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}

	now := s.now()
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Topic:     topic,
		Messages:  s.stamp(req.Messages, now),
		Status:    model.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	conv.MessageCount = len(conv.Messages)

	if err := s.repo.Put(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to store conversation: %w", err)
	}

	metrics.ConversationsTotal.WithLabelValues("create").Inc()
	s.countMessages(conv.Messages)
	s.publish(ctx, conv, model.EventTypeCreated, nil)

	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID),
		zap.String("topic", topic),
	)
	return conv, nil
}

// Get retrieves a conversation by ID.
func (s *ConversationService) Get(ctx context.Context, userID, id string) (*model.Conversation, error) {
	conv, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// List returns the caller's conversations matching filter, most recently
// updated first.
func (s *ConversationService) List(ctx context.Context, userID string, filter model.ConversationFilter) (*model.ListConversationsResponse, error) {
	all, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]*model.Conversation, 0, len(all))
	for _, conv := range all {
		if filter.Status != "" && conv.Status != filter.Status {
			continue
		}
		if filter.Topic != "" && !strings.EqualFold(conv.Topic, filter.Topic) {
			continue
		}
		if filter.Starred != nil && conv.IsStarred != *filter.Starred {
			continue
		}
		if search != "" && !matchesSearch(conv, search) {
			continue
		}
		matched = append(matched, conv)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	total := len(matched)
	start := filter.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	summaries := make([]model.ConversationSummary, 0, end-start)
	for _, conv := range matched[start:end] {
		summaries = append(summaries, conv.Summary())
	}

	return &model.ListConversationsResponse{
		Conversations: summaries,
		Total:         total,
		HasMore:       end < total,
	}, nil
}

// Update applies a partial update. A replacement message log must keep every
// already persisted message in place; messages are immutable once written.
func (s *ConversationService) Update(ctx context.Context, userID, id string, req *model.UpdateConversationRequest) (*model.Conversation, error) {
	var appended []model.Message

	conv, err := s.mutate(ctx, userID, id, func(conv *model.Conversation, now time.Time) error {
		if req.Topic != nil {
			topic := strings.TrimSpace(*req.Topic)
			if topic == "" {
				return fmt.Errorf("%w: topic must not be empty", ErrInvalidInput)
			}
			conv.Topic = topic
		}
		if req.Status != nil {
			if !req.Status.Valid() {
				return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
			}
			conv.Status = *req.Status
		}
		if req.IsStarred != nil {
			conv.IsStarred = *req.IsStarred
		}
		if req.Messages != nil {
			if err := checkExtends(conv.Messages, req.Messages); err != nil {
				return err
			}
			appended = s.stamp(req.Messages[len(conv.Messages):], now)
			conv.Messages = append(conv.Messages, appended...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ConversationsTotal.WithLabelValues("update").Inc()
	s.countMessages(appended)
	s.publish(ctx, conv, model.EventTypeUpdated, nil)
	return conv, nil
}

// AppendTurn appends one completed turn: a user message, optionally followed
// by the assistant reply.
func (s *ConversationService) AppendTurn(ctx context.Context, userID, id string, req *model.AppendTurnRequest) (*model.Conversation, error) {
	if err := checkTurn(req.Messages); err != nil {
		return nil, err
	}

	var appended []model.Message
	conv, err := s.mutate(ctx, userID, id, func(conv *model.Conversation, now time.Time) error {
		if conv.Status == model.StatusArchived {
			return fmt.Errorf("%w: conversation is archived", ErrInvalidInput)
		}
		for _, m := range conv.Messages {
			for _, n := range req.Messages {
				if n.ID != "" && n.ID == m.ID {
					return fmt.Errorf("%w: message %s already exists", ErrInvalidInput, n.ID)
				}
			}
		}
		appended = s.stamp(req.Messages, now)
		conv.Messages = append(conv.Messages, appended...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.countMessages(appended)
	s.publish(ctx, conv, model.EventTypeTurnAppended, map[string]any{"messages": len(appended)})
	return conv, nil
}

// SetStarred stars or unstars a conversation.
func (s *ConversationService) SetStarred(ctx context.Context, userID, id string, starred bool) (*model.Conversation, error) {
	conv, err := s.mutate(ctx, userID, id, func(conv *model.Conversation, _ time.Time) error {
		conv.IsStarred = starred
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, conv, model.EventTypeUpdated, map[string]any{"isStarred": starred})
	return conv, nil
}

// Archive marks a conversation archived.
func (s *ConversationService) Archive(ctx context.Context, userID, id string) (*model.Conversation, error) {
	conv, err := s.mutate(ctx, userID, id, func(conv *model.Conversation, _ time.Time) error {
		conv.Status = model.StatusArchived
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ConversationsTotal.WithLabelValues("archive").Inc()
	s.publish(ctx, conv, model.EventTypeArchived, nil)
	return conv, nil
}

// Delete removes a conversation.
func (s *ConversationService) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	metrics.ConversationsTotal.WithLabelValues("delete").Inc()
	s.publish(ctx, &model.Conversation{ID: id, UserID: userID}, model.EventTypeDeleted, nil)
	s.logger.Info("conversation deleted", zap.String("conversation_id", id), zap.String("user_id", userID))
	return nil
}

func (s *ConversationService) mutate(
	ctx context.Context,
	userID, id string,
	fn func(conv *model.Conversation, now time.Time) error,
) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := fn(conv, now); err != nil {
		return nil, err
	}
	conv.MessageCount = len(conv.Messages)
	conv.UpdatedAt = now

	if err := s.repo.Put(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to store conversation: %w", err)
	}
	return conv, nil
}

// stamp fills in missing IDs and timestamps.
func (s *ConversationService) stamp(messages []model.Message, now time.Time) []model.Message {
	out := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		if m.ID == "" {
			m.ID = uuid.Must(uuid.NewV7()).String()
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		out = append(out, m)
	}
	return out
}

func (s *ConversationService) countMessages(messages []model.Message) {
	for _, m := range messages {
		metrics.MessagesTotal.WithLabelValues(string(m.Sender)).Inc()
	}
}

func (s *ConversationService) publish(ctx context.Context, conv *model.Conversation, typ model.EventType, meta map[string]any) {
	if s.publisher == nil {
		return
	}
	event := &model.ConversationEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Type:           typ,
		Metadata:       meta,
		CreatedAt:      s.now(),
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish conversation event",
			zap.String("conversation_id", conv.ID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}

func matchesSearch(conv *model.Conversation, needle string) bool {
	if strings.Contains(strings.ToLower(conv.Topic), needle) {
		return true
	}
	for _, m := range conv.Messages {
		if strings.Contains(strings.ToLower(m.Text), needle) {
			return true
		}
	}
	return false
}

func checkTurn(messages []model.Message) error {
	switch len(messages) {
	case 1:
		if messages[0].Sender != model.SenderUser {
			return fmt.Errorf("%w: a turn starts with a user message", ErrInvalidInput)
		}
	case 2:
		if messages[0].Sender != model.SenderUser || messages[1].Sender != model.SenderAI {
			return fmt.Errorf("%w: a turn is a user message followed by an ai message", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: a turn has one or two messages", ErrInvalidInput)
	}
	return nil
}

func checkExtends(existing, next []model.Message) error {
	if len(next) < len(existing) {
		return fmt.Errorf("%w: messages cannot be removed", ErrInvalidInput)
	}
	for i, m := range existing {
		n := next[i]
		if n.ID != m.ID || n.Sender != m.Sender || n.Text != m.Text {
			return fmt.Errorf("%w: message %d cannot be changed", ErrInvalidInput, i)
		}
	}
	return nil
}
