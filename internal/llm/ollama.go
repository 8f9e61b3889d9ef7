package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaModel = "llama3.2"

// OllamaClient runs completions against a local Ollama server through
// langchaingo.
type OllamaClient struct {
	llm   *ollama.LLM
	model string
}

// NewOllamaClient creates a client for the Ollama server at serverURL.
func NewOllamaClient(serverURL, model string) (*OllamaClient, error) {
	if model == "" {
		model = defaultOllamaModel
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}

	l, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &OllamaClient{llm: l, model: model}, nil
}

// Name returns the provider name.
func (c *OllamaClient) Name() string {
	return string(ProviderOllama)
}

func (c *OllamaClient) callOptions(req *CompletionRequest) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithMaxTokens(defaultInt(req.MaxTokens, 1024)),
		llms.WithTemperature(req.Temperature),
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	return opts
}

// Complete sends a completion request.
func (c *OllamaClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	text, err := llms.GenerateFromSinglePrompt(ctx, c.llm, req.Prompt, c.callOptions(req)...)
	if err != nil {
		return nil, err
	}

	return &CompletionResponse{
		Content:   text,
		Model:     c.model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// CompleteStream sends a streaming completion request.
func (c *OllamaClient) CompleteStream(ctx context.Context, req *CompletionRequest, handler StreamHandler) (*CompletionResponse, error) {
	start := time.Now()
	var content strings.Builder

	opts := append(c.callOptions(req), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return handler(StreamEvent{Kind: EventUnknown, Upstream: "empty_chunk"})
		}
		content.Write(chunk)
		return handler(StreamEvent{Kind: EventDelta, Text: string(chunk)})
	}))

	if _, err := llms.GenerateFromSinglePrompt(ctx, c.llm, req.Prompt, opts...); err != nil {
		return nil, err
	}

	if err := handler(StreamEvent{Kind: EventCompleted}); err != nil {
		return nil, err
	}

	return &CompletionResponse{
		Content:   content.String(),
		Model:     c.model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}
