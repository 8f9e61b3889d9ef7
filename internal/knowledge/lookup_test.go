package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/leadership-coach/pkg/logger"
)

type stubSearcher struct {
	answer string
	err    error
	panics bool
	wait   bool
	got    Request
}

func (s *stubSearcher) Search(ctx context.Context, req Request) (string, error) {
	s.got = req
	if s.panics {
		panic("index exploded")
	}
	if s.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.answer, s.err
}

func TestLookup_NoIndexConfigured(t *testing.T) {
	var nilLookup *Lookup
	snippet, ok := nilLookup.Search(context.Background(), "delegation")
	assert.False(t, ok)
	assert.Empty(t, snippet)

	l := NewLookup(nil, time.Second, logger.Nop())
	assert.False(t, l.Enabled())
	_, ok = l.Search(context.Background(), "delegation")
	assert.False(t, ok)
}

func TestLookup_Hit(t *testing.T) {
	s := &stubSearcher{answer: "  - Delegate outcomes, not tasks (delegation.pdf)\n"}
	l := NewLookup(s, time.Second, logger.Nop())

	snippet, ok := l.Search(context.Background(), "how do I delegate?")
	assert.True(t, ok)
	assert.Equal(t, "- Delegate outcomes, not tasks (delegation.pdf)", snippet)
	assert.Equal(t, "how do I delegate?", s.got.Query)
	assert.Equal(t, MaxSnippets, s.got.MaxSnippets)
	assert.Contains(t, s.got.Instructions, NoResultsSentinel)
}

func TestLookup_SentinelIsCaseInsensitive(t *testing.T) {
	for _, answer := range []string{"No relevant results", "no relevant results.", "  NO RELEVANT RESULTS  ", ""} {
		l := NewLookup(&stubSearcher{answer: answer}, time.Second, logger.Nop())
		_, ok := l.Search(context.Background(), "q")
		assert.False(t, ok, "answer %q", answer)
	}
}

func TestLookup_ErrorsAreAbsorbed(t *testing.T) {
	l := NewLookup(&stubSearcher{err: errors.New("connection refused")}, time.Second, logger.Nop())
	snippet, ok := l.Search(context.Background(), "q")
	assert.False(t, ok)
	assert.Empty(t, snippet)
}

func TestLookup_PanicsAreAbsorbed(t *testing.T) {
	l := NewLookup(&stubSearcher{panics: true}, time.Second, logger.Nop())
	assert.NotPanics(t, func() {
		_, ok := l.Search(context.Background(), "q")
		assert.False(t, ok)
	})
}

func TestLookup_Timeout(t *testing.T) {
	l := NewLookup(&stubSearcher{wait: true}, 20*time.Millisecond, logger.Nop())

	start := time.Now()
	_, ok := l.Search(context.Background(), "q")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFormatSnippets(t *testing.T) {
	rows := []Snippet{
		{Content: "Ask open questions.", Source: "coaching.md"},
		{Content: "   ", Source: "blank.md"},
		{Content: "Name the\nbehavior,   not the person.", Source: "feedback.pdf"},
		{Content: "Third", Source: ""},
		{Content: "Fourth", Source: "d.md"},
		{Content: "Fifth", Source: "e.md"},
	}

	got := FormatSnippets(rows, MaxSnippets)
	assert.Equal(t,
		"- Ask open questions. (coaching.md)\n"+
			"- Name the behavior, not the person. (feedback.pdf)\n"+
			"- Third (unknown)\n"+
			"- Fourth (d.md)",
		got)

	assert.Equal(t, NoResultsSentinel, FormatSnippets(nil, MaxSnippets))
}
