// Package main provides the entry point for restkit-server.
//
// The server exposes the built-in restkit endpoints through the request
// contract pipeline:
//
//   - HTTP or HTTPS (PKCS#12 keystore or PEM pair, optional hot reload)
//   - Kerberos negotiate handshake on /whoami when a keytab is configured
//   - Prometheus metrics
//
// Usage:
//
//	restkit-server [global flags] serve
//	restkit-server --config /etc/restkit/restkit.yaml check-config
//	restkit-server version --output json
//
// SIGHUP and changes to the configuration file reload the log level.
package main
