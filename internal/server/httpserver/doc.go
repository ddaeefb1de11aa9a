// Package httpserver provides the HTTP/HTTPS server for restkit.
//
// Endpoints are registered once on a Router with an EndpointSpec and a
// HandlerFunc. Every request then runs the contract pipeline:
//
//   - OPTIONS preflight, answered with the CORS headers only
//   - Negotiate handshake on endpoints that declare it
//   - Authorization token gate
//   - Method, query and body validation
//   - The handler, answering through the Exchange
//
// ResponseWriter emits fixed, chunked and multipart bodies with the
// endpoint's headers. Server assigns every connection an identity so the
// negotiate handshake can span several requests, and evicts the handshake
// state when the connection closes.
//
// Middleware: RequestID, Recover, Audit, RateLimit, Executor, Metrics.
package httpserver
