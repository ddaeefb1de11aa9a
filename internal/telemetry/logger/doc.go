// Package logger provides structured logging for restkit.
//
// It wraps log/slog:
//
//   - logger.go: handler construction, the Logger interface and the global level
//   - context.go: context-aware logging with request and connection IDs
//   - redact.go: masking of credentials before they reach the output
//
// The level is process-wide and can be changed at runtime with SetLevel,
// which the config watcher does when log.level changes.
package logger
