// Package service provides the request contract services.
package service

import (
	"net/http"
	"strings"

	"github.com/yndnr/restkit-go/internal/core/domain"
)

// Authorization header names and the token scheme.
const (
	HeaderAuthorization = "Authorization"
	TokenScheme         = "Token"
)

// ExtractToken scans every Authorization header value and returns the
// credential of the first one whose scheme is "Token".
func ExtractToken(h http.Header) (string, bool) {
	for _, value := range h.Values(HeaderAuthorization) {
		fields := strings.Fields(value)
		if len(fields) > 1 && fields[0] == TokenScheme {
			return fields[1], true
		}
	}
	return "", false
}

// RequireToken returns the request token. When required is set and no
// non-empty token is present it fails with ErrMissingToken.
func RequireToken(h http.Header, required bool) (string, error) {
	token, _ := ExtractToken(h)
	if required && token == "" {
		return "", domain.ErrMissingToken.WithDetails("Authorization token is expected.")
	}
	return token, nil
}

// TokenHeaderValue formats the response Authorization header value.
func TokenHeaderValue(token string) string {
	return TokenScheme + " " + token
}
