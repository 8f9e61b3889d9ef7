package nats

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/internal/service"
)

const (
	// ConversationsBucket holds one entry per conversation.
	ConversationsBucket = "coach_conversations"

	// AssessmentsBucket holds one entry per user.
	AssessmentsBucket = "coach_assessments"
)

// encodeToken makes an arbitrary string safe as a KV key or subject token.
func encodeToken(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func conversationKey(userID, id string) string {
	return encodeToken(userID) + "." + encodeToken(id)
}

// Bucket opens a key-value bucket, creating it when missing.
func (c *Client) Bucket(ctx context.Context, name, description string) (jetstream.KeyValue, error) {
	kv, err := c.js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("failed to open bucket %s: %w", name, err)
	}

	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: description,
		History:     1,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return kv, nil
}

// ConversationStore is a service.ConversationRepository backed by a KV
// bucket.
type ConversationStore struct {
	kv jetstream.KeyValue
}

// NewConversationStore opens (or creates) the conversations bucket.
func NewConversationStore(ctx context.Context, client *Client) (*ConversationStore, error) {
	kv, err := client.Bucket(ctx, ConversationsBucket, "Coaching conversations")
	if err != nil {
		return nil, err
	}
	return &ConversationStore{kv: kv}, nil
}

func (s *ConversationStore) Get(ctx context.Context, userID, id string) (*model.Conversation, error) {
	entry, err := s.kv.Get(ctx, conversationKey(userID, id))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return decodeConversation(entry.Value())
}

func (s *ConversationStore) Put(ctx context.Context, conv *model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if _, err := s.kv.Put(ctx, conversationKey(conv.UserID, conv.ID), data); err != nil {
		return fmt.Errorf("failed to put conversation: %w", err)
	}
	return nil
}

func (s *ConversationStore) Delete(ctx context.Context, userID, id string) error {
	key := conversationKey(userID, id)
	if _, err := s.kv.Get(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return service.ErrNotFound
		}
		return fmt.Errorf("failed to get conversation: %w", err)
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// List reads every conversation of userID. A watcher delivers the current
// value of each matching key, then a nil entry.
func (s *ConversationStore) List(ctx context.Context, userID string) ([]*model.Conversation, error) {
	w, err := s.kv.Watch(ctx, encodeToken(userID)+".*", jetstream.IgnoreDeletes())
	if err != nil {
		return nil, fmt.Errorf("failed to watch conversations: %w", err)
	}
	defer w.Stop()

	var out []*model.Conversation
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case entry, ok := <-w.Updates():
			if !ok || entry == nil {
				sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
				return out, nil
			}
			conv, err := decodeConversation(entry.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
	}
}

func decodeConversation(data []byte) (*model.Conversation, error) {
	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

// AssessmentStore is a service.AssessmentRepository backed by a KV bucket.
type AssessmentStore struct {
	kv jetstream.KeyValue
}

// NewAssessmentStore opens (or creates) the assessments bucket.
func NewAssessmentStore(ctx context.Context, client *Client) (*AssessmentStore, error) {
	kv, err := client.Bucket(ctx, AssessmentsBucket, "Leader 360 assessments")
	if err != nil {
		return nil, err
	}
	return &AssessmentStore{kv: kv}, nil
}

func (s *AssessmentStore) Get(ctx context.Context, userID string) (*model.PersonalizationContext, error) {
	entry, err := s.kv.Get(ctx, encodeToken(userID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	var p model.PersonalizationContext
	if err := json.Unmarshal(entry.Value(), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment: %w", err)
	}
	return &p, nil
}

func (s *AssessmentStore) Put(ctx context.Context, p *model.PersonalizationContext) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}
	if _, err := s.kv.Put(ctx, encodeToken(p.UserID), data); err != nil {
		return fmt.Errorf("failed to put assessment: %w", err)
	}
	return nil
}

func (s *AssessmentStore) Delete(ctx context.Context, userID string) error {
	key := encodeToken(userID)
	if _, err := s.kv.Get(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return service.ErrNotFound
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	return nil
}
