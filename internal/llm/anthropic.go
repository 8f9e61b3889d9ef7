package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-haiku-20241022"

// AnthropicClient is the Anthropic LLM client.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	if model == "" {
		model = defaultAnthropicModel
	}

	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return string(ProviderAnthropic)
}

func (c *AnthropicClient) params(req *CompletionRequest) (anthropic.MessageNewParams, string) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	return anthropic.MessageNewParams{
		Model:     anthropic.F(model),
		MaxTokens: anthropic.F(int64(defaultInt(req.MaxTokens, 1024))),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		}),
		Temperature: anthropic.F(req.Temperature),
	}, model
}

// Complete sends a completion request.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	params, _ := c.params(req)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content.WriteString(block.Text)
		}
	}

	return &CompletionResponse{
		Content:    content.String(),
		Model:      string(resp.Model),
		TokensIn:   int(resp.Usage.InputTokens),
		TokensOut:  int(resp.Usage.OutputTokens),
		StopReason: string(resp.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// CompleteStream sends a streaming completion request.
func (c *AnthropicClient) CompleteStream(ctx context.Context, req *CompletionRequest, handler StreamHandler) (*CompletionResponse, error) {
	start := time.Now()
	params, model := c.params(req)

	stream := c.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var content strings.Builder
	var tokensOut int
	var stopReason string

	for stream.Next() {
		event := stream.Current()

		ev := anthropicEvent(event)
		if ev.Kind == EventDelta {
			content.WriteString(ev.Text)
		}
		if event.Type == anthropic.MessageStreamEventTypeMessageDelta {
			if delta, ok := event.Delta.(anthropic.MessageDeltaEventDelta); ok {
				stopReason = string(delta.StopReason)
			}
			tokensOut = int(event.Usage.OutputTokens)
		}

		if err := handler(ev); err != nil {
			return nil, err
		}
	}

	if err := stream.Err(); err != nil {
		return nil, err
	}

	return &CompletionResponse{
		Content:    content.String(),
		Model:      model,
		TokensOut:  tokensOut,
		StopReason: stopReason,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// anthropicEvent maps one SDK stream event onto a StreamEvent. Only text
// deltas and message_stop carry meaning for the relay.
func anthropicEvent(event anthropic.MessageStreamEvent) StreamEvent {
	switch event.Type {
	case anthropic.MessageStreamEventTypeContentBlockDelta:
		if delta, ok := event.Delta.(anthropic.ContentBlockDeltaEventDelta); ok && delta.Text != "" {
			return StreamEvent{Kind: EventDelta, Text: delta.Text}
		}
	case anthropic.MessageStreamEventTypeMessageStop:
		return StreamEvent{Kind: EventCompleted}
	}
	return StreamEvent{Kind: EventUnknown, Upstream: string(event.Type)}
}
