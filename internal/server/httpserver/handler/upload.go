// Package handler provides the built-in restkit endpoints.
package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/yndnr/restkit-go/internal/core/domain"
	"github.com/yndnr/restkit-go/internal/server/httpserver"
)

func (h *Handler) uploadSpec() *domain.EndpointSpec {
	spec := h.spec(http.MethodPost, domain.ContentJSON, nil)
	spec.BodyExpected = true
	spec.RequiresToken = h.cfg.TokenRequired
	return spec
}

// handleUpload handles POST /upload. It answers with the size and digest of
// the body and hands the caller's token back.
func (h *Handler) handleUpload(x *httpserver.Exchange) error {
	sum := sha256.Sum256(x.Body())
	return h.writeJSONWithToken(x, http.StatusCreated, UploadResponse{
		Bytes:  len(x.Body()),
		SHA256: hex.EncodeToString(sum[:]),
	}, x.Token)
}
