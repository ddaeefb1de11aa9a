// Package kerberos provides the Kerberos security mechanism for the
// negotiate handshake.
//
// AcquireServerCredential loads the service keytab once at startup. Each
// handshake gets its own SPNEGO acceptor context that validates the client's
// AP-REQ against the keytab and reports the authenticated principal.
package kerberos
