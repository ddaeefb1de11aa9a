// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for restkit-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server" json:"server"`
	TLS      TLSSection      `koanf:"tls" json:"tls"`
	Kerberos KerberosSection `koanf:"kerberos" json:"kerberos"`
	CORS     CORSSection     `koanf:"cors" json:"cors"`
	Auth     AuthSection     `koanf:"auth" json:"auth"`
	Log      LogSection      `koanf:"log" json:"log"`
	Metrics  MetricsSection  `koanf:"metrics" json:"metrics"`
}

// Executor modes.
const (
	ExecutorSingle = "single"
	ExecutorPool   = "pool"
)

// ServerSection configures the HTTP listener and request handling.
type ServerSection struct {
	Addr string `koanf:"addr" json:"addr"`

	// Executor is "single" (one request at a time) or "pool".
	Executor string `koanf:"executor" json:"executor"`

	// Workers is the pool size when Executor is "pool".
	Workers int `koanf:"workers" json:"workers"`

	MaxBodyBytes int64 `koanf:"max_body_bytes" json:"max_body_bytes"`

	// RateLimit is requests per second per client IP. Zero disables it.
	RateLimit float64 `koanf:"rate_limit" json:"rate_limit"`

	StreamChunkSize int `koanf:"stream_chunk_size" json:"stream_chunk_size"`

	// HideInternalErrors answers non-contract handler errors with a generic 500.
	HideInternalErrors bool `koanf:"hide_internal_errors" json:"hide_internal_errors"`

	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" json:"read_header_timeout"`
}

// TLSSection configures HTTPS. A keystore (PKCS#12) or a PEM certificate
// and key pair may be given, not both.
type TLSSection struct {
	Keystore         string `koanf:"keystore" json:"keystore"`
	KeystorePassword string `koanf:"keystore_password" json:"keystore_password"`
	CertFile         string `koanf:"cert_file" json:"cert_file"`
	KeyFile          string `koanf:"key_file" json:"key_file"`

	// Watch reloads the certificate when the files change.
	Watch bool `koanf:"watch" json:"watch"`
}

// Enabled reports whether any TLS material is configured.
func (s TLSSection) Enabled() bool {
	return s.Keystore != "" || s.CertFile != "" || s.KeyFile != ""
}

// KerberosSection configures the negotiate handshake.
type KerberosSection struct {
	Enabled          bool   `koanf:"enabled" json:"enabled"`
	Keytab           string `koanf:"keytab" json:"keytab"`
	ServicePrincipal string `koanf:"service_principal" json:"service_principal"`

	// Proxy answers with Proxy-Authenticate and 407.
	Proxy bool `koanf:"proxy" json:"proxy"`

	MaxClockSkew time.Duration `koanf:"max_clock_skew" json:"max_clock_skew"`

	// HandshakeTTL drops handshakes that have not completed in time.
	HandshakeTTL time.Duration `koanf:"handshake_ttl" json:"handshake_ttl"`
}

// CORSSection configures cross-origin headers of the built-in endpoints.
type CORSSection struct {
	Enabled      bool   `koanf:"enabled" json:"enabled"`
	ExtraHeaders string `koanf:"extra_headers" json:"extra_headers"`
}

// AuthSection configures the token gate of the built-in endpoints.
type AuthSection struct {
	TokenRequired bool `koanf:"token_required" json:"token_required"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" json:"enabled"`
	Path    string `koanf:"path" json:"path"`
}
