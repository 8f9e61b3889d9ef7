package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/capitalize-ai/leadership-coach/internal/model"
)

// ErrStreamingUnsupported is returned when the response cannot be flushed.
var ErrStreamingUnsupported = errors.New("streaming not supported")

var (
	framePrefix = []byte("data: ")
	frameSuffix = []byte("\n\n")
	doneFrame   = []byte("data: " + model.DoneSentinel + "\n\n")
)

// Writer frames server-sent events onto an HTTP response. It is not safe for
// concurrent use; a relay owns exactly one.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	opened  bool
	done    bool
	// broken is the first write error. Later writes are skipped.
	broken error
}

// NewWriter wraps w. It fails before anything is written when w cannot flush.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Writer{w: w, flusher: flusher}, nil
}

// Open commits the SSE headers with status 200 and flushes them so the client
// sees the stream before any content exists.
func (sw *Writer) Open() {
	if sw.opened {
		return
	}
	sw.opened = true

	h := sw.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	sw.w.WriteHeader(http.StatusOK)
	sw.flusher.Flush()
}

// Opened reports whether headers have been committed.
func (sw *Writer) Opened() bool {
	return sw.opened
}

// Send writes one data frame carrying ev as JSON.
func (sw *Writer) Send(ev model.StreamEvent) error {
	if sw.done {
		return errors.New("stream already terminated")
	}
	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	frame := make([]byte, 0, len(framePrefix)+len(payload)+len(frameSuffix))
	frame = append(frame, framePrefix...)
	frame = append(frame, payload...)
	frame = append(frame, frameSuffix...)
	return sw.write(frame)
}

// Done writes the terminal sentinel frame. Only the first call writes.
func (sw *Writer) Done() error {
	if sw.done {
		return nil
	}
	sw.done = true
	return sw.write(doneFrame)
}

// Err returns the first write error, typically from a disconnected client.
func (sw *Writer) Err() error {
	return sw.broken
}

func (sw *Writer) write(frame []byte) error {
	sw.Open()
	if sw.broken != nil {
		return sw.broken
	}
	if _, err := sw.w.Write(frame); err != nil {
		sw.broken = err
		return err
	}
	sw.flusher.Flush()
	return nil
}

// encodeEvent marshals ev without HTML escaping so deltas such as "<b>" reach
// the client byte for byte.
func encodeEvent(ev model.StreamEvent) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
