// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyTLS(&cfg.TLS); err != nil {
		return err
	}
	if err := verifyKerberos(&cfg.Kerberos); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.addr %q: %w", cfg.Addr, err)
	}

	switch cfg.Executor {
	case ExecutorSingle:
	case ExecutorPool:
		if cfg.Workers < 1 {
			return errors.New("server.workers must be at least 1 for the pool executor")
		}
	default:
		return fmt.Errorf("server.executor must be %q or %q, got %q", ExecutorSingle, ExecutorPool, cfg.Executor)
	}

	if cfg.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if cfg.StreamChunkSize < 0 {
		return errors.New("server.stream_chunk_size must not be negative")
	}
	if cfg.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	return nil
}

func verifyTLS(cfg *TLSSection) error {
	if cfg.Keystore != "" && (cfg.CertFile != "" || cfg.KeyFile != "") {
		return errors.New("tls.keystore and tls.cert_file/tls.key_file are mutually exclusive")
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return errors.New("tls.cert_file and tls.key_file must be set together")
	}
	for _, f := range []string{cfg.Keystore, cfg.CertFile, cfg.KeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("tls: %w", err)
		}
	}
	return nil
}

func verifyKerberos(cfg *KerberosSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Keytab == "" {
		return errors.New("kerberos.keytab is required when kerberos is enabled")
	}
	if _, err := os.Stat(cfg.Keytab); err != nil {
		return fmt.Errorf("kerberos: %w", err)
	}
	if cfg.ServicePrincipal == "" {
		return errors.New("kerberos.service_principal is required when kerberos is enabled")
	}
	if cfg.MaxClockSkew <= 0 {
		return errors.New("kerberos.max_clock_skew must be positive")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Format)
	}
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not valid", cfg.Level)
	}
	return nil
}
