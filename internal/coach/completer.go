package coach

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/leadership-coach/internal/llm"
	"github.com/capitalize-ai/leadership-coach/pkg/logger"
)

const (
	// FallbackMessage replaces a failed or empty synchronous completion.
	FallbackMessage = "I'm having trouble processing that right now. Please try again in a moment."

	// StreamErrorMessage is sent in-band when a streamed turn fails.
	StreamErrorMessage = "Sorry, something went wrong while generating a response. Please try again."
)

// ErrEmptyCompletion is reported when the upstream returns only whitespace.
var ErrEmptyCompletion = errors.New("empty completion")

// ErrNoProvider is returned when no upstream client is configured.
var ErrNoProvider = errors.New("no completion provider configured")

// SyncResult is the outcome of a synchronous completion. Text is always safe
// to show; Err is for logs only.
type SyncResult struct {
	Text     string
	Err      error
	Fallback bool
}

// Completer wraps one upstream provider.
type Completer struct {
	client      llm.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *logger.Logger
}

// CompleterConfig holds generation parameters.
type CompleterConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewCompleter creates a completer. client may be nil, in which case every
// call fails with ErrNoProvider.
func NewCompleter(client llm.Client, cfg CompleterConfig, log *logger.Logger) *Completer {
	return &Completer{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger.OrGlobal(log),
	}
}

// Provider names the upstream, for metrics.
func (c *Completer) Provider() string {
	if c.client == nil {
		return "none"
	}
	return c.client.Name()
}

func (c *Completer) request(prompt string) *llm.CompletionRequest {
	return &llm.CompletionRequest{
		Model:       c.model,
		Prompt:      prompt,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
}

// CompleteSync returns the whole answer, or FallbackMessage when the
// upstream fails or answers with blank text.
func (c *Completer) CompleteSync(ctx context.Context, prompt string) SyncResult {
	if c.client == nil {
		return SyncResult{Text: FallbackMessage, Err: ErrNoProvider, Fallback: true}
	}

	resp, err := c.client.Complete(ctx, c.request(prompt))
	if err != nil {
		c.logger.Error("completion failed", zap.String("provider", c.client.Name()), zap.Error(err))
		return SyncResult{Text: FallbackMessage, Err: err, Fallback: true}
	}
	if strings.TrimSpace(resp.Content) == "" {
		c.logger.Warn("completion was empty", zap.String("provider", c.client.Name()))
		return SyncResult{Text: FallbackMessage, Err: ErrEmptyCompletion, Fallback: true}
	}
	return SyncResult{Text: resp.Content}
}

// CompleteStream streams the answer to handler. A failure to start and a
// failure mid-stream are both returned as errors; handler never sees them.
func (c *Completer) CompleteStream(ctx context.Context, prompt string, handler llm.StreamHandler) error {
	if c.client == nil {
		return ErrNoProvider
	}
	_, err := c.client.CompleteStream(ctx, c.request(prompt), handler)
	return err
}
