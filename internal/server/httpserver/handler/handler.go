// Package handler provides the built-in restkit endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/restkit-go/internal/core/domain"
	"github.com/yndnr/restkit-go/internal/server/httpserver"
)

// Config holds configuration for the built-in endpoints.
type Config struct {
	Logger *slog.Logger

	// CORS enables cross-origin headers on every endpoint.
	CORS bool

	// ExtraHeaders extends Access-Control-Allow-Headers.
	ExtraHeaders string

	// TokenRequired puts /upload and /status behind the token gate.
	TokenRequired bool

	// Negotiate registers /whoami behind the negotiate handshake.
	Negotiate bool

	// Sessions reports the number of handshakes in progress.
	Sessions func() int

	// Metrics is mounted at MetricsPath when set.
	Metrics http.Handler

	// MetricsPath defaults to /metrics.
	MetricsPath string
}

// Handler holds the state shared by the built-in endpoints.
type Handler struct {
	cfg       Config
	logger    *slog.Logger
	router    *httpserver.Router
	startedAt time.Time
}

// New creates a new Handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{cfg: cfg, logger: logger, startedAt: time.Now()}
}

// Register registers all built-in endpoints on rt.
func (h *Handler) Register(rt *httpserver.Router) error {
	h.router = rt

	type route struct {
		path string
		spec *domain.EndpointSpec
		fn   httpserver.HandlerFunc
	}
	routes := []route{
		{"/health", h.spec(http.MethodGet, domain.ContentJSON, nil), h.handleHealth},
		{"/ready", h.spec(http.MethodGet, domain.ContentJSON, nil), h.handleReady},
		{"/echo", h.spec(http.MethodGet, domain.ContentJSON, echoSchema()), h.handleEcho},
		{"/stream", h.spec(http.MethodGet, domain.ContentText, streamSchema()), h.handleStream},
		{"/bundle", h.spec(http.MethodGet, domain.ContentMixed, bundleSchema()), h.handleBundle},
		{"/upload", h.uploadSpec(), h.handleUpload},
		{"/status", h.statusSpec(), h.handleStatus},
	}
	if h.cfg.Negotiate {
		spec := h.spec(http.MethodGet, domain.ContentJSON, nil)
		spec.Negotiate = true
		routes = append(routes, route{"/whoami", spec, h.handleWhoAmI})
	}

	for _, r := range routes {
		if err := rt.Register(r.path, r.spec, r.fn); err != nil {
			return err
		}
	}

	if h.cfg.Metrics != nil {
		path := h.cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		if err := rt.Handle(path, h.cfg.Metrics); err != nil {
			return err
		}
	}
	return nil
}

// spec builds the endpoint contract shared by the built-in endpoints.
func (h *Handler) spec(method string, content domain.ContentKind, params *domain.Schema) *domain.EndpointSpec {
	return &domain.EndpointSpec{
		Method:         method,
		Params:         params,
		CORS:           h.cfg.CORS,
		AllowedMethods: []string{method},
		ExtraHeaders:   h.cfg.ExtraHeaders,
		Content:        content,
	}
}

// writeJSON answers with data in the standard envelope.
func (h *Handler) writeJSON(x *httpserver.Exchange, status int, data any) error {
	return h.writeJSONWithToken(x, status, data, "")
}

func (h *Handler) writeJSONWithToken(x *httpserver.Exchange, status int, data any, token string) error {
	resp := NewResponse(httpserver.GetRequestIDFromContext(x.Context()), data)
	body, err := json.Marshal(resp)
	if err != nil {
		return domain.ErrInternal.WithCause(err)
	}
	return x.Respond(httpserver.Bytes(body), status, token)
}
