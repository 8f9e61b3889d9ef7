// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"fmt"
)

// EventKind discriminates a StreamEvent.
type EventKind int

const (
	// EventUnknown is any upstream event this package does not interpret.
	// Consumers log and drop it.
	EventUnknown EventKind = iota
	// EventDelta carries an incremental text fragment.
	EventDelta
	// EventCompleted is emitted once when the upstream finishes.
	EventCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventDelta:
		return "delta"
	case EventCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// StreamEvent is one event from a streaming completion.
type StreamEvent struct {
	Kind EventKind
	// Text is set for EventDelta.
	Text string
	// Upstream names the provider's own event type for EventUnknown.
	Upstream string
}

// StreamHandler receives stream events in upstream order. Returning an error
// stops the stream.
type StreamHandler func(StreamEvent) error

// CompletionRequest represents a completion request. The prompt is a single
// pre-assembled text.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the whole response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a streaming completion request. It calls handler
	// with an EventDelta per fragment and exactly one EventCompleted on
	// success.
	CompleteStream(ctx context.Context, req *CompletionRequest, handler StreamHandler) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
)

// Options carries provider credentials and endpoints.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, opts Options) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(opts.APIKey, opts.Model)
	case ProviderOpenAI:
		return NewOpenAIClient(opts.APIKey, opts.BaseURL, opts.Model)
	case ProviderOllama:
		return NewOllamaClient(opts.BaseURL, opts.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
