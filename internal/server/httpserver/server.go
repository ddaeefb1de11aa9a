// Package httpserver provides the HTTP/HTTPS server for restkit.
package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ServerConfig holds configuration for the Server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Handler serves requests. Usually a Router wrapped in middleware.
	Handler http.Handler

	// Router is sealed when serving starts. Optional.
	Router *Router

	// TLSConfig enables HTTPS when set.
	TLSConfig *tls.Config

	// Conns assigns connection identities. Nil creates a tracker.
	Conns *ConnTracker

	// ReadHeaderTimeout bounds header reads. Zero means 10 seconds.
	ReadHeaderTimeout time.Duration

	// Logger for lifecycle messages.
	Logger *slog.Logger
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *Router
	conns      *ConnTracker
	tls        bool
	logger     *slog.Logger
}

// New creates a new HTTP server.
func New(cfg ServerConfig) *Server {
	conns := cfg.Conns
	if conns == nil {
		conns = NewConnTracker()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ReadHeaderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           cfg.Handler,
			TLSConfig:         cfg.TLSConfig,
			ReadHeaderTimeout: timeout,
			ConnContext:       conns.ConnContext,
			ConnState:         conns.ConnState,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		router: cfg.Router,
		conns:  conns,
		tls:    cfg.TLSConfig != nil,
		logger: logger,
	}
}

// Conns returns the connection tracker of the server.
func (s *Server) Conns() *ConnTracker {
	return s.conns
}

// ListenAndServe listens on the configured address and serves until
// Shutdown. It returns nil after a graceful shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. With a TLS config the listener is
// wrapped for HTTPS.
func (s *Server) Serve(ln net.Listener) error {
	if s.router != nil {
		s.router.Seal()
	}
	s.logger.Info("http server started", "addr", ln.Addr().String(), "tls", s.tls)

	var err error
	if s.tls {
		err = s.httpServer.ServeTLS(ln, "", "")
	} else {
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping")
	return s.httpServer.Shutdown(ctx)
}
