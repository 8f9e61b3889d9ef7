// Package knowledge looks up short reference snippets for a coaching turn.
// A lookup never fails the caller: every problem degrades to "no snippet".
package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/capitalize-ai/leadership-coach/pkg/logger"
	"github.com/capitalize-ai/leadership-coach/pkg/metrics"
	"github.com/capitalize-ai/leadership-coach/pkg/tracing"
)

const (
	// NoResultsSentinel is what a searcher answers when nothing matches.
	NoResultsSentinel = "No relevant results"

	// MaxSnippets bounds the number of bullets a searcher may return.
	MaxSnippets = 4
)

// Instructions is sent with every query.
var Instructions = fmt.Sprintf(
	"Return at most %d short bullet points relevant to the query. "+
		"End each bullet with the source filename in parentheses. "+
		"If nothing is relevant, reply exactly: %s",
	MaxSnippets, NoResultsSentinel,
)

// Request is a single search call.
type Request struct {
	Query        string
	Instructions string
	MaxSnippets  int
}

// Searcher runs one query against a document index and returns its textual
// answer.
type Searcher interface {
	Search(ctx context.Context, req Request) (string, error)
}

// Lookup wraps an optional Searcher. The zero value and a nil *Lookup are
// valid and always report no result.
type Lookup struct {
	searcher Searcher
	timeout  time.Duration
	logger   *logger.Logger
}

// NewLookup creates a lookup over searcher. A nil searcher means no index is
// configured. timeout <= 0 leaves the call bounded only by ctx.
func NewLookup(searcher Searcher, timeout time.Duration, log *logger.Logger) *Lookup {
	return &Lookup{
		searcher: searcher,
		timeout:  timeout,
		logger:   logger.OrGlobal(log),
	}
}

// Enabled reports whether an index is configured.
func (l *Lookup) Enabled() bool {
	return l != nil && l.searcher != nil
}

// Search returns a snippet block for query, or ok=false when there is none.
func (l *Lookup) Search(ctx context.Context, query string) (snippet string, ok bool) {
	if !l.Enabled() {
		return "", false
	}

	ctx, span := tracing.Tracer("knowledge").Start(ctx, "knowledge.search")
	defer span.End()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.Warn("knowledge search panicked", zap.Any("panic", r))
			metrics.KnowledgeLookups.WithLabelValues("error").Inc()
			snippet, ok = "", false
		}
	}()

	text, err := l.searcher.Search(ctx, Request{
		Query:        query,
		Instructions: Instructions,
		MaxSnippets:  MaxSnippets,
	})
	if err != nil {
		l.logger.Warn("knowledge search failed", zap.Error(err))
		metrics.KnowledgeLookups.WithLabelValues("error").Inc()
		span.SetAttributes(attribute.String("knowledge.result", "error"))
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" || isNoResults(text) {
		metrics.KnowledgeLookups.WithLabelValues("miss").Inc()
		span.SetAttributes(attribute.String("knowledge.result", "miss"))
		return "", false
	}

	metrics.KnowledgeLookups.WithLabelValues("hit").Inc()
	span.SetAttributes(attribute.String("knowledge.result", "hit"))
	return text, true
}

func isNoResults(text string) bool {
	t := strings.TrimRight(strings.TrimSpace(text), ".")
	return strings.EqualFold(t, NoResultsSentinel)
}
