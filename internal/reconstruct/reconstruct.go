// Package reconstruct folds a chat SSE byte stream back into a transcript.
//
// Bytes may arrive in arbitrary chunks, including chunks that split a
// multi-byte character or a frame. Deltas accumulate into one assistant
// message whose ID is fixed for the lifetime of the Reconstructor, so a UI
// can replace it in place instead of appending duplicates.
package reconstruct

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/capitalize-ai/leadership-coach/internal/model"
)

const dataPrefix = "data: "

// Result is a snapshot of the reconstructed turn.
type Result struct {
	// Messages is the prior transcript followed by the assistant message, if
	// any text has arrived.
	Messages  []model.Message
	Text      string
	Completed bool
	// Done is set once the terminal sentinel has been read.
	Done  bool
	Error string
}

// Reconstructor consumes an SSE byte stream. It is not safe for concurrent
// use.
type Reconstructor struct {
	prior    []model.Message
	message  model.Message
	text     strings.Builder
	pending  []byte // undecoded trailing bytes of a split rune
	line     []byte // decoded text after the last newline
	started  bool
	done     bool
	complete bool
	errMsg   string
	onUpdate func(Result)
	now      func() time.Time
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithHistory seeds the transcript the assistant message is appended to.
func WithHistory(messages []model.Message) Option {
	return func(r *Reconstructor) {
		r.prior = append([]model.Message(nil), messages...)
	}
}

// WithObserver registers fn to receive a snapshot after every applied
// event.
func WithObserver(fn func(Result)) Option {
	return func(r *Reconstructor) { r.onUpdate = fn }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Reconstructor) { r.now = now }
}

// New creates a Reconstructor.
func New(opts ...Option) *Reconstructor {
	r := &Reconstructor{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.message = model.Message{
		ID:     uuid.NewString(),
		Sender: model.SenderAI,
	}
	return r
}

// MessageID is the stable ID of the assistant message.
func (r *Reconstructor) MessageID() string {
	return r.message.ID
}

// Done reports whether the terminal sentinel has been read.
func (r *Reconstructor) Done() bool {
	return r.done
}

// Write feeds raw bytes. It never fails; bytes after the sentinel are
// discarded.
func (r *Reconstructor) Write(p []byte) (int, error) {
	if r.done {
		return len(p), nil
	}

	data := p
	if len(r.pending) > 0 {
		data = append(r.pending, p...)
		r.pending = nil
	}

	// Hold back an incomplete rune at the tail until more bytes arrive.
	cut := len(data)
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				cut = i
			}
			break
		}
	}
	if cut < len(data) {
		r.pending = append([]byte(nil), data[cut:]...)
	}

	r.line = append(r.line, data[:cut]...)
	r.drainLines()
	return len(p), nil
}

func (r *Reconstructor) drainLines() {
	for !r.done {
		i := bytes.IndexByte(r.line, '\n')
		if i < 0 {
			return
		}
		line := string(bytes.TrimSuffix(r.line[:i], []byte("\r")))
		r.line = r.line[i+1:]
		r.handleLine(line)
	}
}

func (r *Reconstructor) handleLine(line string) {
	if !strings.HasPrefix(line, dataPrefix) {
		return
	}
	payload := strings.TrimPrefix(line, dataPrefix)

	if strings.TrimSpace(payload) == model.DoneSentinel {
		r.done = true
		r.line = nil
		r.pending = nil
		r.notify()
		return
	}

	var ev model.StreamEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		// A malformed frame is skipped; the rest of the stream is still usable.
		return
	}

	switch {
	case ev.Delta != nil:
		if !r.started {
			r.started = true
			r.message.Timestamp = r.now()
		}
		r.text.WriteString(*ev.Delta)
	case ev.Completed:
		r.complete = true
	case ev.Error != nil:
		r.errMsg = *ev.Error
	default:
		return
	}
	r.notify()
}

func (r *Reconstructor) notify() {
	if r.onUpdate != nil {
		r.onUpdate(r.Snapshot())
	}
}

// Snapshot returns the current state. The returned slice is a copy.
func (r *Reconstructor) Snapshot() Result {
	res := Result{
		Text:      r.text.String(),
		Completed: r.complete,
		Done:      r.done,
		Error:     r.errMsg,
	}
	res.Messages = make([]model.Message, 0, len(r.prior)+1)
	res.Messages = append(res.Messages, r.prior...)
	if r.started {
		msg := r.message
		msg.Text = res.Text
		res.Messages = append(res.Messages, msg)
	}
	return res
}

// Finish flushes a trailing unterminated line and returns the final state.
// Partial text is kept when the stream ended early.
func (r *Reconstructor) Finish() Result {
	if !r.done && len(r.line) > 0 {
		line := string(bytes.TrimSuffix(r.line, []byte("\r")))
		r.line = nil
		r.handleLine(line)
	}
	return r.Snapshot()
}

// Consume reads body until the sentinel, EOF or ctx cancellation and returns
// the final state. A read error is returned alongside the partial result.
func (r *Reconstructor) Consume(ctx context.Context, body io.Reader) (Result, error) {
	buf := make([]byte, 4096)
	for !r.done {
		if err := ctx.Err(); err != nil {
			return r.Finish(), err
		}
		n, err := body.Read(buf)
		if n > 0 {
			r.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return r.Finish(), err
		}
	}
	return r.Finish(), nil
}
