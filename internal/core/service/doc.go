// Package service provides the request contract services.
//
// Services hold no per-request state and are safe for concurrent use:
//
//   - Validator: turns a raw query string into typed values under a schema
//   - ExtractToken / RequireToken: the "Authorization: Token <t>" gate
//   - NegotiateAuthenticator: the multi-round negotiate handshake, keyed by
//     connection identity in a SessionStore
//
// The negotiate handshake depends on a SecurityMechanism, injected at
// construction so that tests can drive it without a KDC.
package service
