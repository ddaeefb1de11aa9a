// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr          = "127.0.0.1:8080"
	DefaultExecutor          = ExecutorPool
	DefaultWorkers           = 64
	DefaultMaxBodyBytes      = 8 << 20
	DefaultStreamChunkSize   = 32 << 10
	DefaultShutdownTimeout   = 15 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second

	DefaultMaxClockSkew = 5 * time.Minute
	DefaultHandshakeTTL = 2 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:              DefaultHTTPAddr,
			Executor:          DefaultExecutor,
			Workers:           DefaultWorkers,
			MaxBodyBytes:      DefaultMaxBodyBytes,
			StreamChunkSize:   DefaultStreamChunkSize,
			ShutdownTimeout:   DefaultShutdownTimeout,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
		},
		Kerberos: KerberosSection{
			MaxClockSkew: DefaultMaxClockSkew,
			HandshakeTTL: DefaultHandshakeTTL,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}
