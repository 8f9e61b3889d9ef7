package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.ConversationEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, e *model.ConversationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestService(t *testing.T) (*ConversationService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := NewConversationService(NewMemoryConversations(), pub, logger.Nop())
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, pub
}

func userMsg(text string) model.Message { return model.Message{Sender: model.SenderUser, Text: text} }
func aiMsg(text string) model.Message   { return model.Message{Sender: model.SenderAI, Text: text} }

func TestCreate(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{
		Topic:    " feedback ",
		Messages: []model.Message{userMsg("Hi"), aiMsg("Hello!")},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "feedback", conv.Topic)
	assert.Equal(t, model.StatusActive, conv.Status)
	assert.Equal(t, 2, conv.MessageCount)
	for _, m := range conv.Messages {
		assert.NotEmpty(t, m.ID)
		assert.False(t, m.Timestamp.IsZero())
	}
	assert.Equal(t, []model.EventType{model.EventTypeCreated}, pub.types())

	got, err := svc.Get(ctx, "u1", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv, got)

	_, err = svc.Get(ctx, "u2", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_RequiresTopic(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "u1", &model.CreateConversationRequest{Topic: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAppendTurn_KeepsCountInSync(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{Topic: "delegation"})
	require.NoError(t, err)

	conv, err = svc.AppendTurn(ctx, "u1", conv.ID, &model.AppendTurnRequest{
		Messages: []model.Message{userMsg("How do I delegate?"), aiMsg("Start with outcomes.")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, conv.MessageCount)
	assert.Len(t, conv.Messages, 2)

	conv, err = svc.AppendTurn(ctx, "u1", conv.ID, &model.AppendTurnRequest{
		Messages: []model.Message{userMsg("And then?")},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, conv.MessageCount)
	assert.Equal(t, "And then?", conv.Messages[2].Text)

	assert.Equal(t, []model.EventType{model.EventTypeCreated, model.EventTypeTurnAppended, model.EventTypeTurnAppended}, pub.types())
}

func TestAppendTurn_Rejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{Topic: "feedback"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		messages []model.Message
	}{
		{name: "empty", messages: nil},
		{name: "ai first", messages: []model.Message{aiMsg("hi")}},
		{name: "two users", messages: []model.Message{userMsg("a"), userMsg("b")}},
		{name: "too many", messages: []model.Message{userMsg("a"), aiMsg("b"), userMsg("c")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AppendTurn(ctx, "u1", conv.ID, &model.AppendTurnRequest{Messages: tt.messages})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err = svc.AppendTurn(ctx, "u1", "missing", &model.AppendTurnRequest{Messages: []model.Message{userMsg("a")}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendTurn_ArchivedConversation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{Topic: "feedback"})
	require.NoError(t, err)
	_, err = svc.Archive(ctx, "u1", conv.ID)
	require.NoError(t, err)

	_, err = svc.AppendTurn(ctx, "u1", conv.ID, &model.AppendTurnRequest{Messages: []model.Message{userMsg("a")}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdate_Partial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{
		Topic:    "feedback",
		Messages: []model.Message{userMsg("Hi")},
	})
	require.NoError(t, err)

	topic := "delegation"
	starred := true
	messages := append(append([]model.Message(nil), conv.Messages...), aiMsg("Hello"))
	updated, err := svc.Update(ctx, "u1", conv.ID, &model.UpdateConversationRequest{
		Topic:     &topic,
		IsStarred: &starred,
		Messages:  messages,
	})
	require.NoError(t, err)

	assert.Equal(t, "delegation", updated.Topic)
	assert.True(t, updated.IsStarred)
	assert.Equal(t, model.StatusActive, updated.Status)
	assert.Equal(t, 2, updated.MessageCount)
	assert.True(t, updated.UpdatedAt.After(conv.UpdatedAt))
}

func TestUpdate_MessagesAreImmutable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{
		Topic:    "feedback",
		Messages: []model.Message{userMsg("Hi"), aiMsg("Hello")},
	})
	require.NoError(t, err)

	edited := append([]model.Message(nil), conv.Messages...)
	edited[1].Text = "Rewritten"
	_, err = svc.Update(ctx, "u1", conv.ID, &model.UpdateConversationRequest{Messages: edited})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(ctx, "u1", conv.ID, &model.UpdateConversationRequest{Messages: conv.Messages[:1]})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := svc.Get(ctx, "u1", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Messages[1].Text)
}

func TestList_FiltersAndPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{
			Topic:    "feedback",
			Messages: []model.Message{userMsg(fmt.Sprintf("question %d", i))},
		})
		require.NoError(t, err)
	}
	deleg, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{
		Topic:    "delegation",
		Messages: []model.Message{userMsg("Handing off the roadmap")},
	})
	require.NoError(t, err)
	_, err = svc.SetStarred(ctx, "u1", deleg.ID, true)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", &model.CreateConversationRequest{Topic: "feedback"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "u1", model.ConversationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 6, all.Total)
	assert.Equal(t, deleg.ID, all.Conversations[0].ID)

	page, err := svc.List(ctx, "u1", model.ConversationFilter{Topic: "FEEDBACK", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Conversations, 2)
	assert.True(t, page.HasMore)

	starred := true
	st, err := svc.List(ctx, "u1", model.ConversationFilter{Starred: &starred})
	require.NoError(t, err)
	require.Len(t, st.Conversations, 1)
	assert.Equal(t, deleg.ID, st.Conversations[0].ID)

	found, err := svc.List(ctx, "u1", model.ConversationFilter{Search: "ROADMAP"})
	require.NoError(t, err)
	require.Len(t, found.Conversations, 1)
	require.NotNil(t, found.Conversations[0].LastMessage)
	assert.Equal(t, "Handing off the roadmap", found.Conversations[0].LastMessage.Text)

	archived, err := svc.List(ctx, "u1", model.ConversationFilter{Status: model.StatusArchived})
	require.NoError(t, err)
	assert.Zero(t, archived.Total)
}

func TestDelete(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{Topic: "feedback"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", conv.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", conv.ID))

	_, err = svc.Get(ctx, "u1", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, model.EventTypeDeleted, pub.types()[len(pub.types())-1])
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats: no responders")}
	svc := NewConversationService(NewMemoryConversations(), pub, logger.Nop())

	_, err := svc.Create(context.Background(), "u1", &model.CreateConversationRequest{Topic: "feedback"})
	assert.NoError(t, err)
}
