// Package logger provides structured logging for restkit.
package logger

import (
	"log/slog"
	"strings"
)

// Authorization schemes whose credential part is masked wherever it appears.
var sensitiveSchemes = []string{
	"Negotiate ",
	"Token ",
	"Basic ",
}

// Key patterns that mark an attribute as sensitive.
var sensitiveKeyPatterns = []string{
	"authorization",
	"token",
	"password",
	"secret",
	"credential",
}

const redactedValue = "***REDACTED***"

// redactSensitive masks scheme credentials and fully redacts values stored
// under sensitive keys. Groups are walked recursively.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		strVal := a.Value.String()
		if scheme, ok := credentialScheme(strVal); ok {
			return slog.String(a.Key, scheme+"***")
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

func credentialScheme(value string) (string, bool) {
	for _, scheme := range sensitiveSchemes {
		if len(value) > len(scheme) && strings.EqualFold(value[:len(scheme)], scheme) {
			return value[:len(scheme)], true
		}
	}
	return "", false
}

// RedactString masks the credential part of an authorization header value.
// Other values are returned unchanged.
func RedactString(value string) string {
	if scheme, ok := credentialScheme(value); ok {
		return scheme + "***"
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value is an authorization credential.
func IsSensitiveValue(value string) bool {
	_, ok := credentialScheme(value)
	return ok
}
