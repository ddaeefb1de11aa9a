// Package handler provides the built-in restkit endpoints.
package handler

import (
	"net/http"

	"github.com/yndnr/restkit-go/internal/server/httpserver"
)

// handleWhoAmI handles GET /whoami after a completed negotiate handshake.
func (h *Handler) handleWhoAmI(x *httpserver.Exchange) error {
	h.logger.Debug("whoami", "principal", x.Principal, "conn_id", x.ConnID())
	return h.writeJSON(x, http.StatusOK, WhoAmIResponse{
		Principal: x.Principal,
		ConnID:    x.ConnID(),
	})
}
