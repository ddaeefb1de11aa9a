// Package httpserver provides the HTTP/HTTPS server for restkit.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/oklog/ulid/v2"
)

type connIDKey struct{}

// WithConnID returns ctx carrying the connection identity id.
func WithConnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connIDKey{}, id)
}

// ConnIDFromContext returns the connection identity stored in ctx.
func ConnIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(connIDKey{}).(string); ok {
		return id
	}
	return ""
}

// connID returns the identity of the connection r arrived on. Requests not
// served through a ConnTracker fall back to the remote address.
func connID(r *http.Request) string {
	if id := ConnIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.RemoteAddr
}

// ConnTracker gives every accepted connection a ULID identity and reports
// when the connection goes away. Install ConnContext and ConnState on the
// http.Server.
type ConnTracker struct {
	mu      sync.Mutex
	ids     map[net.Conn]string
	onClose []func(connID string)
}

// NewConnTracker creates a ConnTracker.
func NewConnTracker() *ConnTracker {
	return &ConnTracker{ids: make(map[net.Conn]string)}
}

// OnClose registers fn to be called with the identity of every closed or
// hijacked connection. It must be called before serving starts.
func (t *ConnTracker) OnClose(fn func(connID string)) {
	t.onClose = append(t.onClose, fn)
}

// ConnContext implements http.Server.ConnContext.
func (t *ConnTracker) ConnContext(ctx context.Context, c net.Conn) context.Context {
	id := ulid.Make().String()

	t.mu.Lock()
	t.ids[c] = id
	t.mu.Unlock()

	return WithConnID(ctx, id)
}

// ConnState implements http.Server.ConnState.
func (t *ConnTracker) ConnState(c net.Conn, state http.ConnState) {
	if state != http.StateClosed && state != http.StateHijacked {
		return
	}

	t.mu.Lock()
	id, ok := t.ids[c]
	delete(t.ids, c)
	t.mu.Unlock()

	if !ok {
		return
	}
	for _, fn := range t.onClose {
		fn(id)
	}
}

// Active returns the number of tracked connections.
func (t *ConnTracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}
