// Package handler provides the built-in restkit endpoints.
package handler

import (
	"github.com/yndnr/restkit-go/internal/core/domain"
	"github.com/yndnr/restkit-go/internal/infra/buildinfo"
	"github.com/yndnr/restkit-go/internal/server/httpserver"
)

func bundleSchema() *domain.Schema {
	return domain.NewSchema().
		Optional("binary", domain.TypeBoolean, domain.NewBool(false))
}

// handleBundle handles GET /bundle: a JSON status part, a text part with
// the build info and, on request, a binary part.
func (h *Handler) handleBundle(x *httpserver.Exchange) error {
	parts := []httpserver.Part{
		{Kind: domain.ContentJSON, Data: []byte(`{"status":"ok"}`)},
		{Kind: domain.ContentText, Data: []byte(buildinfo.String())},
	}
	if x.Params().MustBool("binary") {
		payload := make([]byte, 256)
		for i := range payload {
			payload[i] = byte(i)
		}
		parts = append(parts, httpserver.Part{ContentType: "application/octet-stream", Data: payload})
	}
	return x.Multipart(parts...)
}
