// Package httpserver provides the HTTP/HTTPS server for restkit.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yndnr/restkit-go/internal/core/domain"
)

// HandlerFunc is the business logic of an endpoint. It answers through the
// Exchange; returning nil without answering produces 204, returning an error
// without answering produces an error response.
type HandlerFunc func(x *Exchange) error

// Exchange is the handler's view of one validated request.
type Exchange struct {
	// W and R are the underlying transport objects.
	W http.ResponseWriter
	R *http.Request

	// Path is the registered endpoint path.
	Path string

	// Spec is the contract of the endpoint.
	Spec *domain.EndpointSpec

	// Request is the validated request.
	Request *domain.ParsedRequest

	// Token is the incoming "Authorization: Token" value, if any.
	Token string

	// Principal is the negotiated identity on negotiate endpoints.
	Principal string

	rw      *ResponseWriter
	written bool
}

// Context returns the request context.
func (x *Exchange) Context() context.Context {
	return x.R.Context()
}

// Params returns the validated query parameters.
func (x *Exchange) Params() domain.Params {
	return x.Request.Values
}

// ConnID returns the identity of the connection the request arrived on.
func (x *Exchange) ConnID() string {
	return x.Request.ConnID
}

// Body returns the request body when the endpoint expects one.
func (x *Exchange) Body() []byte {
	return x.Request.Body
}

// BodyString returns the request body as UTF-8 text.
func (x *Exchange) BodyString() string {
	return string(x.Request.Body)
}

// PathSegments returns the non-empty segments of the request path.
func (x *Exchange) PathSegments() []string {
	return strings.FieldsFunc(x.R.URL.Path, func(r rune) bool { return r == '/' })
}

// RequiredString returns the STRING parameter name, failing with
// ErrMissingParameter when it is empty.
func (x *Exchange) RequiredString(name string) (string, error) {
	s, err := x.Request.Values.String(name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", domain.ErrMissingParameter.WithDetailsf("Parameter %s not found in url", name)
	}
	return s, nil
}

// Written reports whether a response has been emitted.
func (x *Exchange) Written() bool {
	return x.written
}

// Respond emits body with status and an optional response token. A second
// call fails with ErrAlreadyResponded and writes nothing.
func (x *Exchange) Respond(body Body, status int, token string) error {
	if x.written {
		return domain.ErrAlreadyResponded
	}
	x.written = true
	err := x.rw.Emit(x.W, x.Spec, body, status, token)
	if err != nil && !errors.Is(err, domain.ErrRequestAborted) {
		// Emit writes nothing unless the failure is on the connection.
		x.written = false
	}
	return err
}

// OK emits msg with 200, or 204 when msg is empty.
func (x *Exchange) OK(msg string) error {
	return x.Respond(Text(msg), http.StatusOK, "")
}

// OKWithToken emits msg with 200 and an "Authorization: Token" header.
func (x *Exchange) OKWithToken(msg, token string) error {
	return x.Respond(Text(msg), http.StatusOK, token)
}

// NoContent emits 204.
func (x *Exchange) NoContent() error {
	return x.Respond(Empty{}, http.StatusNoContent, "")
}

// Stream emits the content of r with chunked transfer.
func (x *Exchange) Stream(r Stream, status int) error {
	return x.Respond(r, status, "")
}

// Multipart emits parts as one multipart/mixed body.
func (x *Exchange) Multipart(parts ...Part) error {
	return x.Respond(Parts(parts), http.StatusOK, "")
}

// ParameterNotFound emits the 400 answer for a missing query parameter.
func (x *Exchange) ParameterNotFound(name string) error {
	return x.Respond(Text("Parameter "+name+" not found in url"), http.StatusBadRequest, "")
}
