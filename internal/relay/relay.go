// Package relay forwards one upstream completion stream to a browser as
// server-sent events.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/leadership-coach/internal/llm"
	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/pkg/logger"
	"github.com/capitalize-ai/leadership-coach/pkg/metrics"
)

// State is the lifecycle stage of a relay.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	default:
		return "terminated"
	}
}

// Outcome is how a relayed turn ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCanceled  Outcome = "canceled"
	OutcomeTimeout   Outcome = "timeout"
	// OutcomeIncomplete means upstream ended without signalling completion.
	OutcomeIncomplete Outcome = "incomplete"
)

// Source produces the upstream event stream for a prompt.
type Source interface {
	CompleteStream(ctx context.Context, prompt string, handler llm.StreamHandler) error
	Provider() string
}

// Result summarizes a relayed turn.
type Result struct {
	Outcome  Outcome
	Text     string
	Deltas   int
	Unknown  int
	Err      error
	Duration time.Duration
}

// errClientGone stops the upstream once the client can no longer be written to.
var errClientGone = errors.New("client disconnected")

var errSourcePanic = errors.New("upstream source panicked")

// Relay drives a single request. It must not be reused.
type Relay struct {
	w            *Writer
	source       Source
	logger       *logger.Logger
	errorMessage string
	state        State
}

// Option configures a Relay.
type Option func(*Relay)

// WithErrorMessage sets the text of the in-band error frame.
func WithErrorMessage(msg string) Option {
	return func(r *Relay) { r.errorMessage = msg }
}

// New creates a relay writing to w.
func New(w *Writer, source Source, log *logger.Logger, opts ...Option) *Relay {
	r := &Relay{
		w:            w,
		source:       source,
		logger:       logger.OrGlobal(log),
		errorMessage: "An error occurred while generating a response.",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle stage.
func (r *Relay) State() State {
	return r.state
}

// Run streams prompt to the client. Headers are committed on entry, and the
// terminal sentinel is written exactly once on every path before Run
// returns. Cancelling ctx aborts the upstream call.
func (r *Relay) Run(ctx context.Context, prompt string) Result {
	start := time.Now()
	provider := r.source.Provider()

	r.state = StateStreaming
	r.w.Open()
	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		res       Result
		text      []byte
		completed bool
	)

	handler := func(ev llm.StreamEvent) error {
		if completed {
			return nil
		}
		switch ev.Kind {
		case llm.EventDelta:
			if ev.Text == "" {
				return nil
			}
			if err := r.w.Send(model.DeltaEvent(ev.Text)); err != nil {
				return errClientGone
			}
			res.Deltas++
			text = append(text, ev.Text...)
			metrics.DeltasTotal.WithLabelValues(provider).Inc()
		case llm.EventCompleted:
			completed = true
			if err := r.w.Send(model.CompletedEvent()); err != nil {
				return errClientGone
			}
		case llm.EventUnknown:
			res.Unknown++
			metrics.UnknownEventsTotal.WithLabelValues(provider).Inc()
			if r.logger.Development() {
				r.logger.Debug("dropping unknown upstream event",
					zap.String("provider", provider),
					zap.String("upstream_type", ev.Upstream),
				)
			}
		}
		return nil
	}

	err := r.stream(ctx, prompt, handler)

	switch {
	case completed:
		res.Outcome = OutcomeCompleted
	case errors.Is(err, errClientGone) || (err != nil && r.w.Err() != nil):
		res.Outcome = OutcomeCanceled
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Outcome = OutcomeTimeout
		r.sendError()
	case err != nil && ctx.Err() != nil:
		res.Outcome = OutcomeCanceled
	case err != nil:
		res.Outcome = OutcomeFailed
		r.sendError()
	default:
		res.Outcome = OutcomeIncomplete
	}
	res.Err = err

	// A broken connection makes this a no-op; the error is only recorded.
	_ = r.w.Done()
	r.state = StateTerminated

	res.Text = string(text)
	res.Duration = time.Since(start)
	metrics.RecordTurn(provider, "stream", string(res.Outcome), res.Duration.Seconds())

	if err != nil && res.Outcome != OutcomeCanceled {
		r.logger.Error("stream relay failed",
			zap.String("provider", provider),
			zap.String("outcome", string(res.Outcome)),
			zap.Int("deltas", res.Deltas),
			zap.Error(err),
		)
	}
	return res
}

// stream runs the source, turning a panic into an error so the turn still
// terminates with an error frame and the sentinel.
func (r *Relay) stream(ctx context.Context, prompt string, handler llm.StreamHandler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("upstream source panicked",
				zap.String("provider", r.source.Provider()),
				zap.Any("panic", p),
				zap.Stack("stack"),
			)
			err = fmt.Errorf("%w: %v", errSourcePanic, p)
		}
	}()
	return r.source.CompleteStream(ctx, prompt, handler)
}

func (r *Relay) sendError() {
	if err := r.w.Send(model.ErrorEvent(r.errorMessage)); err != nil {
		r.logger.Debug("failed to write error frame", zap.Error(err))
	}
}
