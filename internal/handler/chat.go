package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/capitalize-ai/leadership-coach/internal/coach"
	"github.com/capitalize-ai/leadership-coach/internal/middleware"
	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/internal/relay"
	"github.com/capitalize-ai/leadership-coach/internal/service"
	"github.com/capitalize-ai/leadership-coach/pkg/logger"
	"github.com/capitalize-ai/leadership-coach/pkg/metrics"
	"github.com/capitalize-ai/leadership-coach/pkg/tracing"
)

// ChatHandler handles the coaching chat endpoints.
type ChatHandler struct {
	assembler       *coach.Assembler
	completer       *coach.Completer
	personalization *service.PersonalizationService
	turnTimeout     time.Duration
	logger          *logger.Logger
}

// NewChatHandler creates a new chat handler. personalization may be nil.
func NewChatHandler(
	assembler *coach.Assembler,
	completer *coach.Completer,
	personalization *service.PersonalizationService,
	turnTimeout time.Duration,
	log *logger.Logger,
) *ChatHandler {
	return &ChatHandler{
		assembler:       assembler,
		completer:       completer,
		personalization: personalization,
		turnTimeout:     turnTimeout,
		logger:          logger.OrGlobal(log),
	}
}

// Stream handles POST /api/v1/chat/stream
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readRequest(w, r)
	if !ok {
		return
	}

	sw, err := relay.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx, cancel := h.turnContext(r.Context())
	defer cancel()

	ctx, span := tracing.Tracer("handler").Start(ctx, "chat.stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.topic", req.Topic),
		attribute.Int("chat.history_turns", len(req.ConversationHistory)),
	)

	log := h.requestLogger(r)

	// Commit headers before assembly so the client sees the stream open
	// while personalization and knowledge lookups run.
	sw.Open()

	prompt := h.assemble(ctx, req)
	res := relay.New(sw, h.completer, log, relay.WithErrorMessage(coach.StreamErrorMessage)).Run(ctx, prompt)

	span.SetAttributes(
		attribute.String("chat.outcome", string(res.Outcome)),
		attribute.Int("chat.deltas", res.Deltas),
	)
	if res.Err != nil && res.Outcome != relay.OutcomeCanceled {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, string(res.Outcome))
	}

	log.Info("chat turn streamed",
		zap.String("topic", req.Topic),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("deltas", res.Deltas),
		zap.Int("chars", len(res.Text)),
		zap.Duration("duration", res.Duration),
	)
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.turnContext(r.Context())
	defer cancel()

	ctx, span := tracing.Tracer("handler").Start(ctx, "chat.sync")
	defer span.End()

	start := time.Now()
	prompt := h.assemble(ctx, req)
	res := h.completer.CompleteSync(ctx, prompt)

	outcome := "completed"
	switch {
	case res.Err == nil:
	case errors.Is(res.Err, coach.ErrEmptyCompletion):
		outcome = "empty"
	default:
		outcome = "failed"
	}
	metrics.RecordTurn(h.completer.Provider(), "sync", outcome, time.Since(start).Seconds())
	span.SetAttributes(attribute.String("chat.outcome", outcome))

	if outcome == "failed" {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, outcome)
		writeJSON(w, http.StatusInternalServerError, model.ChatResponse{
			Message: res.Text,
			Error:   "internal error",
		})
		return
	}
	writeJSON(w, http.StatusOK, model.ChatResponse{Message: res.Text})
}

// readRequest decodes and validates the body. On failure it answers 400 and
// returns ok=false; nothing else has been written.
func (h *ChatHandler) readRequest(w http.ResponseWriter, r *http.Request) (*model.ChatRequest, bool) {
	var req model.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := middleware.ValidateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, middleware.ErrValidation.Error())
		return nil, false
	}
	return &req, true
}

func (h *ChatHandler) turnContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.turnTimeout > 0 {
		return context.WithTimeout(ctx, h.turnTimeout)
	}
	return context.WithCancel(ctx)
}

func (h *ChatHandler) assemble(ctx context.Context, req *model.ChatRequest) string {
	return h.assembler.Assemble(ctx, coach.AssembleInput{
		Message:         req.Message,
		Topic:           req.Topic,
		History:         req.ConversationHistory,
		Personalization: h.personalization.Lookup(ctx, middleware.GetUserID(ctx)),
	})
}

func (h *ChatHandler) requestLogger(r *http.Request) *logger.Logger {
	ctx := r.Context()
	return h.logger.WithRequest(middleware.GetCorrelationID(ctx), middleware.GetUserID(ctx))
}
