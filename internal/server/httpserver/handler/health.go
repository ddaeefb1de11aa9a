// Package handler provides the built-in restkit endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/restkit-go/internal/server/httpserver"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(x *httpserver.Exchange) error {
	return h.writeJSON(x, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(x *httpserver.Exchange) error {
	return h.writeJSON(x, http.StatusOK, HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
