// Package domain defines the core request/response contract models.
package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DomainError represents a contract violation with a structured error code.
// Codes follow the format RK-<AREA>-<status><n>, where <status> is the HTTP
// status class the error is answered with.
type DomainError struct {
	Code    string // Error code (e.g., "RK-ARG-4001")
	Message string // Short, stable description
	Details string // Client-visible explanation (legacy wording)
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches by error code so that sentinels compare equal to their copies.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ClientMessage returns the text written to the response body.
func (e *DomainError) ClientMessage() string {
	if e.Details != "" {
		return e.Details
	}
	return e.Message
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// HTTPStatus maps an error to the status it is answered with.
// Errors that are not DomainErrors map to 500.
func HTTPStatus(err error) int {
	code := GetErrorCode(err)
	if code == "" {
		return http.StatusInternalServerError
	}

	idx := strings.LastIndex(code, "-")
	if idx < 0 || len(code)-idx-1 < 3 {
		return http.StatusInternalServerError
	}

	switch code[idx+1 : idx+4] {
	case "400":
		return http.StatusBadRequest
	case "405":
		return http.StatusMethodNotAllowed
	case "409":
		return http.StatusConflict
	case "413":
		return http.StatusRequestEntityTooLarge
	case "429":
		return http.StatusTooManyRequests
	case "499":
		return StatusClientClosedRequest
	case "503":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// StatusClientClosedRequest marks a request whose client went away.
// It is never written to the wire.
const StatusClientClosedRequest = 499

// ============================================================================
// Request errors (REQ)
// ============================================================================

var (
	// ErrMethodNotAllowed indicates the transport method differs from the endpoint's method.
	ErrMethodNotAllowed = NewDomainError("RK-REQ-4050", "method not allowed")

	// ErrEmptyBodyExpected indicates the endpoint expects a request body but none was sent.
	ErrEmptyBodyExpected = NewDomainError("RK-REQ-4001", "request body expected")

	// ErrBodyTooLarge indicates the request body exceeded the configured limit.
	ErrBodyTooLarge = NewDomainError("RK-REQ-4130", "request body too large")

	// ErrRateLimited indicates the client exceeded its request rate.
	ErrRateLimited = NewDomainError("RK-REQ-4290", "too many requests")

	// ErrRequestAborted indicates the client went away while the body was read.
	ErrRequestAborted = NewDomainError("RK-REQ-4990", "request aborted")
)

// ============================================================================
// Argument errors (ARG)
// ============================================================================

var (
	// ErrUnknownParameter indicates a query parameter not declared by the schema.
	ErrUnknownParameter = NewDomainError("RK-ARG-4001", "unknown parameter")

	// ErrInvalidBoolean indicates a BOOLEAN parameter was neither "true" nor "false".
	ErrInvalidBoolean = NewDomainError("RK-ARG-4002", "invalid boolean")

	// ErrInvalidInteger indicates an INT parameter was not a base-10 integer.
	ErrInvalidInteger = NewDomainError("RK-ARG-4003", "invalid integer")

	// ErrInvalidDouble indicates a DOUBLE parameter was not a floating literal.
	ErrInvalidDouble = NewDomainError("RK-ARG-4004", "invalid double")

	// ErrInvalidDate indicates a DATE parameter was not a yyyy-MM-dd calendar date.
	ErrInvalidDate = NewDomainError("RK-ARG-4005", "invalid date")

	// ErrMissingParameter indicates a required parameter was absent.
	ErrMissingParameter = NewDomainError("RK-ARG-4006", "missing parameter")

	// ErrMalformedQuery indicates the query string could not be percent-decoded.
	ErrMalformedQuery = NewDomainError("RK-ARG-4007", "malformed query string")
)

// ============================================================================
// Authentication errors (AUTH)
// ============================================================================

var (
	// ErrMissingToken indicates the endpoint requires an authorization token and none was sent.
	ErrMissingToken = NewDomainError("RK-AUTH-4000", "authorization token missing")

	// ErrConcurrentHandshake indicates a second request arrived on a connection
	// while its negotiate handshake round was still in flight.
	ErrConcurrentHandshake = NewDomainError("RK-AUTH-4090", "concurrent negotiate round on connection")

	// ErrAuthenticationFailed indicates a terminal negotiate handshake failure.
	ErrAuthenticationFailed = NewDomainError("RK-AUTH-5000", "authentication failed")
)

// ============================================================================
// System errors (SYS, VAL)
// ============================================================================

var (
	// ErrInternal is the catch-all for unexpected handler failures.
	ErrInternal = NewDomainError("RK-SYS-5000", "internal server error")

	// ErrTypeMismatch indicates a parameter was read through the wrong accessor.
	// It is a programming error.
	ErrTypeMismatch = NewDomainError("RK-VAL-5000", "parameter type mismatch")

	// ErrAlreadyResponded indicates a second response was attempted for one request.
	ErrAlreadyResponded = NewDomainError("RK-SYS-5001", "response already written")

	// ErrServerBusy indicates a request gave up waiting for a free worker.
	ErrServerBusy = NewDomainError("RK-SYS-5030", "server busy")
)
