// Package handler provides the built-in restkit endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/restkit-go/internal/core/domain"
	"github.com/yndnr/restkit-go/internal/infra/buildinfo"
	"github.com/yndnr/restkit-go/internal/server/httpserver"
)

func (h *Handler) statusSpec() *domain.EndpointSpec {
	spec := h.spec(http.MethodGet, domain.ContentJSON, nil)
	spec.RequiresToken = h.cfg.TokenRequired
	return spec
}

// handleStatus handles GET /status.
func (h *Handler) handleStatus(x *httpserver.Exchange) error {
	info := buildinfo.Get()
	resp := StatusResponse{
		Status:        "running",
		Version:       info.Version,
		Commit:        info.Commit,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}
	if h.cfg.Sessions != nil {
		resp.NegotiateSessions = h.cfg.Sessions()
	}
	if h.router != nil {
		resp.Endpoints = h.router.Paths()
	}
	return h.writeJSON(x, http.StatusOK, resp)
}
