// Package coach builds coaching prompts and drives the upstream completion
// provider for a single turn.
package coach

import (
	"context"
	"strings"

	"github.com/capitalize-ai/leadership-coach/internal/model"
)

// KnowledgeLookup returns a snippet block for a query, or ok=false.
// Implementations must not fail the caller.
type KnowledgeLookup interface {
	Search(ctx context.Context, query string) (snippet string, ok bool)
}

// AssembleInput is everything a prompt is built from.
type AssembleInput struct {
	Message         string
	Topic           string
	History         []model.ChatTurn
	Personalization *model.PersonalizationContext
}

// Assembler builds the single text prompt sent upstream.
type Assembler struct {
	topics     *Topics
	knowledge  KnowledgeLookup
	maxHistory int
	summaryLen int
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithKnowledge enables knowledge augmentation.
func WithKnowledge(k KnowledgeLookup) AssemblerOption {
	return func(a *Assembler) { a.knowledge = k }
}

// WithMaxHistory keeps only the most recent n turns. Zero keeps all.
func WithMaxHistory(n int) AssemblerOption {
	return func(a *Assembler) { a.maxHistory = n }
}

// WithSummaryLength caps the personalization summary.
func WithSummaryLength(n int) AssemblerOption {
	return func(a *Assembler) { a.summaryLen = n }
}

// NewAssembler creates an assembler over the topic catalog.
func NewAssembler(topics *Topics, opts ...AssemblerOption) *Assembler {
	if topics == nil {
		topics = DefaultTopics()
	}
	a := &Assembler{
		topics:     topics,
		summaryLen: DefaultSummaryLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble returns the prompt for one turn. The only side effect is the
// best-effort knowledge lookup.
func (a *Assembler) Assemble(ctx context.Context, in AssembleInput) string {
	var b strings.Builder

	b.WriteString(a.topics.Preamble(in.Topic))
	b.WriteString("\n\n")

	if p := in.Personalization; p != nil && strings.TrimSpace(p.Assessment) != "" {
		b.WriteString("Leader profile (from their 360 assessment):\n")
		b.WriteString(SummarizeAssessment(p.Assessment, a.summaryLen))
		b.WriteString("\n\n")
	}

	if a.knowledge != nil {
		if snippet, ok := a.knowledge.Search(ctx, in.Message); ok {
			b.WriteString("Relevant reference material:\n")
			b.WriteString(snippet)
			b.WriteString("\n\n")
		}
	}

	for _, turn := range a.window(in.History) {
		b.WriteString(turnLabel(turn.Sender))
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n\n")
	}

	b.WriteString("User: ")
	b.WriteString(in.Message)
	return b.String()
}

func (a *Assembler) window(history []model.ChatTurn) []model.ChatTurn {
	if a.maxHistory > 0 && len(history) > a.maxHistory {
		return history[len(history)-a.maxHistory:]
	}
	return history
}

func turnLabel(s model.TurnSender) string {
	if s == model.TurnAssistant {
		return "Assistant"
	}
	return "User"
}
