package coach

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/leadership-coach/internal/knowledge"
	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/pkg/logger"
)

type stubKnowledge struct {
	snippet string
	ok      bool
	queries []string
}

func (s *stubKnowledge) Search(ctx context.Context, query string) (string, bool) {
	s.queries = append(s.queries, query)
	return s.snippet, s.ok
}

type failingSearcher struct{}

func (failingSearcher) Search(ctx context.Context, req knowledge.Request) (string, error) {
	panic("index unavailable")
}

func TestAssemble_HistoryPreservedVerbatim(t *testing.T) {
	a := NewAssembler(DefaultTopics())

	prompt := a.Assemble(context.Background(), AssembleInput{
		Message: "C",
		Topic:   "feedback",
		History: []model.ChatTurn{
			{Sender: model.TurnUser, Text: "A"},
			{Sender: model.TurnAssistant, Text: "B"},
		},
	})

	iA := strings.Index(prompt, "User: A")
	iB := strings.Index(prompt, "Assistant: B")
	require.GreaterOrEqual(t, iA, 0)
	require.GreaterOrEqual(t, iB, 0)
	assert.Less(t, iA, iB)
	assert.True(t, strings.HasSuffix(prompt, "User: C"))
	assert.Contains(t, prompt, "User: A\n\nAssistant: B\n\nUser: C")
}

func TestAssemble_NamesTopic(t *testing.T) {
	a := NewAssembler(nil)

	known := a.Assemble(context.Background(), AssembleInput{Message: "hi", Topic: "self-awareness"})
	assert.Contains(t, known, "Current coaching topic: Self-awareness.")

	unknown := a.Assemble(context.Background(), AssembleInput{Message: "hi", Topic: "negotiation"})
	assert.Contains(t, unknown, "Current coaching topic: negotiation.")
}

func TestAssemble_KnowledgeSnippet(t *testing.T) {
	k := &stubKnowledge{snippet: "- Use SBI feedback (feedback.pdf)", ok: true}
	a := NewAssembler(nil, WithKnowledge(k))

	prompt := a.Assemble(context.Background(), AssembleInput{Message: "How do I give feedback?", Topic: "feedback"})

	assert.Contains(t, prompt, "Relevant reference material:\n- Use SBI feedback (feedback.pdf)\n\n")
	assert.Equal(t, []string{"How do I give feedback?"}, k.queries)
}

func TestAssemble_NoSnippetAddsNothing(t *testing.T) {
	a := NewAssembler(nil, WithKnowledge(&stubKnowledge{}))
	prompt := a.Assemble(context.Background(), AssembleInput{Message: "hi", Topic: "feedback"})
	assert.NotContains(t, prompt, "Relevant reference material")
}

func TestAssemble_KnowledgeFailureIsNotFatal(t *testing.T) {
	lookup := knowledge.NewLookup(failingSearcher{}, time.Second, logger.Nop())
	a := NewAssembler(nil, WithKnowledge(lookup))

	var prompt string
	require.NotPanics(t, func() {
		prompt = a.Assemble(context.Background(), AssembleInput{Message: "Hello", Topic: "delegation"})
	})
	assert.True(t, strings.HasSuffix(prompt, "User: Hello"))
	assert.NotContains(t, prompt, "Relevant reference material")
}

func TestAssemble_PersonalizationIsCapped(t *testing.T) {
	a := NewAssembler(nil)
	p := &model.PersonalizationContext{
		UserID:     "u1",
		Assessment: strings.Repeat("Consistently praised for clear direction. ", 200),
	}

	prompt := a.Assemble(context.Background(), AssembleInput{Message: "hi", Topic: "feedback", Personalization: p})

	start := strings.Index(prompt, "Leader profile (from their 360 assessment):\n")
	require.GreaterOrEqual(t, start, 0)
	rest := prompt[start+len("Leader profile (from their 360 assessment):\n"):]
	block := rest[:strings.Index(rest, "\n\n")]
	assert.LessOrEqual(t, len([]rune(block)), DefaultSummaryLength)
	assert.NotEmpty(t, block)
}

func TestAssemble_PersonalizationNotMutated(t *testing.T) {
	a := NewAssembler(nil)
	p := &model.PersonalizationContext{UserID: "u1", Assessment: "Strengths: listening"}
	before := *p

	a.Assemble(context.Background(), AssembleInput{Message: "hi", Topic: "feedback", Personalization: p})
	assert.Equal(t, before, *p)
}

func TestAssemble_HistoryWindow(t *testing.T) {
	a := NewAssembler(nil, WithMaxHistory(2))
	history := []model.ChatTurn{
		{Sender: model.TurnUser, Text: "one"},
		{Sender: model.TurnAssistant, Text: "two"},
		{Sender: model.TurnUser, Text: "three"},
	}

	prompt := a.Assemble(context.Background(), AssembleInput{Message: "four", Topic: "feedback", History: history})

	assert.NotContains(t, prompt, "User: one")
	assert.Contains(t, prompt, "Assistant: two\n\nUser: three\n\nUser: four")
}

func TestAssemble_UnboundedHistory(t *testing.T) {
	a := NewAssembler(nil, WithMaxHistory(0))
	history := make([]model.ChatTurn, 0, 120)
	for i := 0; i < 120; i++ {
		history = append(history, model.ChatTurn{Sender: model.TurnUser, Text: "x"})
	}

	prompt := a.Assemble(context.Background(), AssembleInput{Message: "y", Topic: "feedback", History: history})
	assert.Equal(t, 121, strings.Count(prompt, "User: "))
}
