// Package handler provides the built-in restkit endpoints.
package handler

import "time"

// Response is the standard JSON response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// HealthResponse is the body of GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// EchoResponse is the body of GET /echo.
type EchoResponse struct {
	Message string  `json:"message"`
	Repeat  int64   `json:"repeat"`
	Upper   bool    `json:"upper"`
	Scale   float64 `json:"scale"`
	On      string  `json:"on"`
}

// UploadResponse is the body of POST /upload.
type UploadResponse struct {
	Bytes  int    `json:"bytes"`
	SHA256 string `json:"sha256"`
}

// WhoAmIResponse is the body of GET /whoami.
type WhoAmIResponse struct {
	Principal string `json:"principal"`
	ConnID    string `json:"conn_id"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status            string   `json:"status"`
	Version           string   `json:"version"`
	Commit            string   `json:"commit"`
	UptimeSeconds     int64    `json:"uptime_seconds"`
	NegotiateSessions int      `json:"negotiate_sessions"`
	Endpoints         []string `json:"endpoints"`
}
