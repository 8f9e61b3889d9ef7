// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/leadership-coach/internal/middleware"
	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/internal/service"
	"github.com/capitalize-ai/leadership-coach/pkg/logger"
)

const conversationNotFound = "conversation not found"

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  logger.OrGlobal(log),
	}
}

// Create handles POST /api/v1/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.CreateConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.Create(ctx, userID, &req)
	if err != nil {
		h.logger.Error("failed to create conversation", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, err, conversationNotFound)
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

// List handles GET /api/v1/conversations
// Query: status, topic, search, starred, limit, offset.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := model.ConversationFilter{
		Topic:  q.Get("topic"),
		Search: q.Get("search"),
		Limit:  20,
	}

	if s := q.Get("status"); s != "" {
		status := model.ConversationStatus(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = status
	}

	if s := q.Get("starred"); s != "" {
		starred, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid starred")
			return
		}
		filter.Starred = &starred
	}

	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			filter.Limit = parsed
		}
	}

	if o := q.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			filter.Offset = parsed
		}
	}

	resp, err := h.service.List(ctx, middleware.GetUserID(ctx), filter)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/conversations/:id
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationParam(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Get(ctx, middleware.GetUserID(ctx), conversationID)
	if err != nil {
		writeServiceError(w, err, conversationNotFound)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// Update handles PATCH /api/v1/conversations/:id
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationParam(w, r)
	if !ok {
		return
	}

	var req model.UpdateConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.Update(ctx, middleware.GetUserID(ctx), conversationID, &req)
	if err != nil {
		writeServiceError(w, err, conversationNotFound)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// AppendTurn handles POST /api/v1/conversations/:id/messages
func (h *ConversationHandler) AppendTurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationParam(w, r)
	if !ok {
		return
	}

	var req model.AppendTurnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.AppendTurn(ctx, middleware.GetUserID(ctx), conversationID, &req)
	if err != nil {
		writeServiceError(w, err, conversationNotFound)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// Star handles PUT /api/v1/conversations/:id/star
func (h *ConversationHandler) Star(w http.ResponseWriter, r *http.Request) {
	h.setStarred(w, r, true)
}

// Unstar handles DELETE /api/v1/conversations/:id/star
func (h *ConversationHandler) Unstar(w http.ResponseWriter, r *http.Request) {
	h.setStarred(w, r, false)
}

func (h *ConversationHandler) setStarred(w http.ResponseWriter, r *http.Request, starred bool) {
	ctx := r.Context()
	conversationID, ok := conversationParam(w, r)
	if !ok {
		return
	}

	conv, err := h.service.SetStarred(ctx, middleware.GetUserID(ctx), conversationID, starred)
	if err != nil {
		writeServiceError(w, err, conversationNotFound)
		return
	}

	writeJSON(w, http.StatusOK, conv.Summary())
}

// Archive handles POST /api/v1/conversations/:id/archive
func (h *ConversationHandler) Archive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationParam(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Archive(ctx, middleware.GetUserID(ctx), conversationID)
	if err != nil {
		writeServiceError(w, err, conversationNotFound)
		return
	}

	writeJSON(w, http.StatusOK, conv.Summary())
}

// Delete handles DELETE /api/v1/conversations/:id
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, middleware.GetUserID(ctx), conversationID); err != nil {
		writeServiceError(w, err, conversationNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func conversationParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}
