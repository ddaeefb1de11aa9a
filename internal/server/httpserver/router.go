// Package httpserver provides the HTTP/HTTPS server for restkit.
package httpserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/yndnr/restkit-go/internal/core/domain"
	"github.com/yndnr/restkit-go/internal/core/service"
)

// ErrRouterSealed is returned by registrations after serving started.
var ErrRouterSealed = errors.New("router: registration after serving started")

// RouterConfig holds configuration for the Router.
type RouterConfig struct {
	// Validator validates query strings and bodies. Required.
	Validator *service.Validator

	// Responses serializes response bodies. Nil uses the defaults.
	Responses *ResponseWriter

	// Negotiator runs the negotiate handshake. Endpoints declaring Negotiate
	// cannot be registered without one.
	Negotiator *service.NegotiateAuthenticator

	// Logger for registration, rejection and handler error logging.
	Logger *slog.Logger

	// HideInternalErrors answers handler errors that are not DomainErrors
	// with a generic 500 instead of 400 and the error text.
	HideInternalErrors bool

	// OnReject is called with the error code of every rejected request.
	OnReject func(code string)
}

type route struct {
	path    string
	spec    *domain.EndpointSpec
	handler HandlerFunc
}

// Router dispatches requests to registered endpoints through the contract
// pipeline: preflight, negotiate, token gate, validation and the handler.
// Registration is one-time and closes when the router is sealed.
type Router struct {
	mux        *http.ServeMux
	validator  *service.Validator
	responses  *ResponseWriter
	negotiator *service.NegotiateAuthenticator
	logger     *slog.Logger
	hideErrors bool
	onReject   func(code string)

	mu     sync.Mutex
	paths  map[string]struct{}
	sealed atomic.Bool
}

// NewRouter creates a Router.
func NewRouter(cfg RouterConfig) *Router {
	rt := &Router{
		mux:        http.NewServeMux(),
		validator:  cfg.Validator,
		responses:  cfg.Responses,
		negotiator: cfg.Negotiator,
		logger:     cfg.Logger,
		hideErrors: cfg.HideInternalErrors,
		onReject:   cfg.OnReject,
		paths:      make(map[string]struct{}),
	}
	if rt.validator == nil {
		rt.validator = service.NewValidator(service.ValidatorConfig{})
	}
	if rt.responses == nil {
		rt.responses = NewResponseWriter(ResponseConfig{})
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	return rt
}

// NormalizePath returns path with exactly one leading slash and no trailing one.
func NormalizePath(path string) string {
	return "/" + strings.Trim(path, "/")
}

// Register mounts an endpoint at path and at every sub-path of it.
func (rt *Router) Register(path string, spec *domain.EndpointSpec, h HandlerFunc) error {
	if spec == nil || h == nil {
		return fmt.Errorf("router: register %q: spec and handler are required", path)
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("router: register %q: %w", path, err)
	}
	if spec.Negotiate && rt.negotiator == nil {
		return fmt.Errorf("router: register %q: negotiate endpoint without an authenticator", path)
	}

	r := &route{path: NormalizePath(path), spec: spec, handler: h}
	if err := validatePath(r.path); err != nil {
		return fmt.Errorf("router: register %q: %w", path, err)
	}
	if err := rt.mount(r.path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rt.serve(r, w, req)
	})); err != nil {
		return err
	}

	rt.logger.Info("register service", "path", r.path, "method", spec.Method)
	return nil
}

// Handle mounts a plain http.Handler outside the contract pipeline, e.g.
// the metrics endpoint.
func (rt *Router) Handle(path string, h http.Handler) error {
	p := NormalizePath(path)
	if err := validatePath(p); err != nil {
		return fmt.Errorf("router: handle %q: %w", path, err)
	}
	return rt.mount(p, h)
}

// validatePath rejects paths the mux would read as patterns: wildcards,
// a method or host prefix, and control characters.
func validatePath(path string) error {
	for _, c := range path {
		switch {
		case c == '{' || c == '}':
			return fmt.Errorf("path %s contains a wildcard brace", path)
		case unicode.IsSpace(c) || unicode.IsControl(c):
			return fmt.Errorf("path %s contains whitespace or control characters", path)
		}
	}
	return nil
}

func (rt *Router) mount(path string, h http.Handler) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.sealed.Load() {
		return fmt.Errorf("%w: %s", ErrRouterSealed, path)
	}
	if _, dup := rt.paths[path]; dup {
		return fmt.Errorf("router: path %s already registered", path)
	}

	if err := handleMux(rt.mux, path, h); err != nil {
		return err
	}
	if path != "/" {
		if err := handleMux(rt.mux, path+"/", h); err != nil {
			return err
		}
	}
	rt.paths[path] = struct{}{}
	return nil
}

// handleMux converts a pattern panic of http.ServeMux into an error.
func handleMux(mux *http.ServeMux, pattern string, h http.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("router: path %s: %v", pattern, r)
		}
	}()
	mux.Handle(pattern, h)
	return nil
}

// Seal closes registration.
func (rt *Router) Seal() {
	rt.sealed.Store(true)
}

// Paths returns the registered paths, sorted.
func (rt *Router) Paths() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]string, 0, len(rt.paths))
	for p := range rt.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ServeHTTP implements http.Handler. The first request seals the router.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !rt.sealed.Load() {
		rt.Seal()
	}
	rt.mux.ServeHTTP(w, r)
}

// serve runs the contract pipeline. Every rejection returns right after its
// response is written, so nothing is written twice.
func (rt *Router) serve(rte *route, w http.ResponseWriter, r *http.Request) {
	spec := rte.spec
	cid := connID(r)
	log := rt.logger.With("path", rte.path, "conn_id", cid)

	if r.Method == http.MethodOptions {
		log.Info("preflight request")
		SetContractHeaders(w.Header(), spec, "")
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
		return
	}

	var principal string
	if spec.Negotiate {
		res := rt.negotiator.Authenticate(cid, r.Header)
		if res.Challenge != "" {
			w.Header().Set(res.ChallengeHeader, res.Challenge)
		}
		switch res.Outcome {
		case service.OutcomeRetry:
			log.Debug("negotiate challenge", "status", res.Status, "rounds", res.Rounds)
			SetContractHeaders(w.Header(), spec, "")
			w.WriteHeader(res.Status)
			return
		case service.OutcomeFailure:
			rt.reject(w, spec, res.Err, log)
			return
		}
		principal = res.Principal
		log.Info("negotiate established", "principal", principal, "rounds", res.Rounds)
	}

	token, err := service.RequireToken(r.Header, spec.RequiresToken)
	if err != nil {
		rt.reject(w, spec, err, log)
		return
	}

	parsed, err := rt.validator.Validate(spec, &service.ValidateInput{
		RawQuery: r.URL.RawQuery,
		Method:   r.Method,
		Body:     rt.boundedBody(w, r),
		ConnID:   cid,
	})
	if err != nil {
		rt.reject(w, spec, err, log)
		return
	}

	x := &Exchange{
		W:         w,
		R:         r,
		Path:      rte.path,
		Spec:      spec,
		Request:   parsed,
		Token:     token,
		Principal: principal,
		rw:        rt.responses,
	}

	if err := rte.handler(x); err != nil {
		rt.handlerError(x, err, log)
		return
	}
	if !x.Written() {
		if err := x.NoContent(); err != nil {
			log.Warn("cannot write response", "error", err)
		}
	}
}

// boundedBody limits the request body to the validator's limit. Reading past
// it fails with *http.MaxBytesError and closes the connection afterwards.
func (rt *Router) boundedBody(w http.ResponseWriter, r *http.Request) io.Reader {
	if r.Body == nil || r.Body == http.NoBody {
		return r.Body
	}
	return http.MaxBytesReader(w, r.Body, rt.validator.MaxBodyBytes())
}

// reject answers a request refused before the handler ran.
func (rt *Router) reject(w http.ResponseWriter, spec *domain.EndpointSpec, err error, log *slog.Logger) {
	code := domain.GetErrorCode(err)
	if rt.onReject != nil {
		rt.onReject(code)
	}

	if errors.Is(err, domain.ErrRequestAborted) {
		log.Warn("request aborted", "code", code, "error", err)
		return
	}

	msg := clientMessage(err)
	log.Warn("request rejected", "code", code, "reason", msg)
	rt.writeError(w, spec, domain.HTTPStatus(err), code, msg)
}

// handlerError answers a handler failure unless the handler already
// answered or the client went away.
func (rt *Router) handlerError(x *Exchange, err error, log *slog.Logger) {
	if errors.Is(err, domain.ErrRequestAborted) {
		log.Warn("request aborted", "error", err)
		return
	}
	log.Error("error while handling service", "error", err)
	if x.Written() {
		return
	}
	x.written = true

	var de *domain.DomainError
	switch {
	case errors.As(err, &de):
		rt.writeError(x.W, x.Spec, domain.HTTPStatus(err), de.Code, de.ClientMessage())
	case rt.hideErrors:
		rt.writeError(x.W, x.Spec, http.StatusInternalServerError, domain.ErrInternal.Code, domain.ErrInternal.Message)
	default:
		rt.writeError(x.W, x.Spec, http.StatusBadRequest, "", err.Error())
	}
}

func (rt *Router) writeError(w http.ResponseWriter, spec *domain.EndpointSpec, status int, code, msg string) {
	SetContractHeaders(w.Header(), spec, "")
	w.Header().Set("Content-Type", "text/plain")
	if code != "" {
		w.Header().Set("X-Error-Code", code)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if err := writeFixed(w, status, []byte(msg)); err != nil {
		rt.logger.Warn("cannot write error response", "error", err)
	}
}

func clientMessage(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.ClientMessage()
	}
	return err.Error()
}
