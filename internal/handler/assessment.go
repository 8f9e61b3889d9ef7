package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/leadership-coach/internal/middleware"
	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/internal/service"
	"github.com/capitalize-ai/leadership-coach/pkg/logger"
)

const assessmentNotFound = "assessment not found"

// AssessmentHandler manages the caller's 360 assessment.
type AssessmentHandler struct {
	service *service.PersonalizationService
	logger  *logger.Logger
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(svc *service.PersonalizationService, log *logger.Logger) *AssessmentHandler {
	return &AssessmentHandler{service: svc, logger: logger.OrGlobal(log)}
}

// Get handles GET /api/v1/assessment
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.service.Get(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeServiceError(w, err, assessmentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Put handles PUT /api/v1/assessment
func (h *AssessmentHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.PutAssessmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Put(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		h.logger.Error("failed to store assessment", zap.Error(err))
		writeServiceError(w, err, assessmentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/assessment
func (h *AssessmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, middleware.GetUserID(ctx)); err != nil {
		writeServiceError(w, err, assessmentNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
