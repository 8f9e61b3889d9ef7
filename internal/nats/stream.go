package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/leadership-coach/internal/model"
)

const (
	// StreamName is the name of the coaching events stream.
	StreamName = "COACHING"

	// SubjectPrefix is the prefix for all coaching event subjects.
	SubjectPrefix = "coaching"
)

// EventStream publishes conversation lifecycle events.
type EventStream struct {
	js jetstream.JetStream
}

// NewEventStream creates a new event stream publisher.
func NewEventStream(client *Client) *EventStream {
	return &EventStream{js: client.JetStream()}
}

// EnsureStream ensures the events stream exists with proper configuration.
func (s *EventStream) EnsureStream(ctx context.Context) error {
	if _, err := s.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := s.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Coaching conversation lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// EventSubject returns the subject for an event. The user ID is encoded
// because it may contain characters that are not valid in a subject token.
func EventSubject(userID, conversationID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, encodeToken(userID), conversationID, eventType)
}

// UserFilter returns the filter subject for every event of a user.
func UserFilter(userID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, encodeToken(userID))
}

// PublishEvent publishes an event to JetStream.
func (s *EventStream) PublishEvent(ctx context.Context, event *model.ConversationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := EventSubject(event.UserID, event.ConversationID, event.Type)
	if _, err := s.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
