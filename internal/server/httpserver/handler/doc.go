// Package handler provides the built-in restkit endpoints.
//
// The endpoints make the server binary useful on its own and exercise every
// part of the request contract:
//
//   - health.go: /health and /ready
//   - echo.go: typed query parameters of every supported type
//   - stream.go: chunked responses of unknown length
//   - bundle.go: multipart/mixed responses
//   - upload.go: endpoints expecting a request body and a token
//   - whoami.go: the negotiate handshake
//   - admin.go: /status summary
//
// All handlers follow a consistent pattern:
//
//   - Read the validated parameters from the Exchange
//   - Build the payload
//   - Answer through the Exchange, or return an error
package handler
