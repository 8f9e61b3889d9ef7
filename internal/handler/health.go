package handler

import (
	"net/http"

	natsclient "github.com/capitalize-ai/leadership-coach/internal/nats"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	natsClient *natsclient.Client
	provider   string
}

// NewHealthHandler creates a new health handler. natsClient is nil when
// storage is in memory.
func NewHealthHandler(natsClient *natsclient.Client, provider string) *HealthHandler {
	return &HealthHandler{
		natsClient: natsClient,
		provider:   provider,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.provider == "" || h.provider == "none" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "no completion provider configured",
		})
		return
	}

	storage := "memory"
	if h.natsClient != nil {
		if !h.natsClient.IsConnected() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "NATS not connected",
			})
			return
		}
		storage = "nats"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"provider": h.provider,
		"storage":  storage,
	})
}
