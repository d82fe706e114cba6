// Package errors holds the transport-facing error shape. Domain errors live
// with their packages; this one exists so every HTTP response renders the
// same JSON body.
package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the structured error body of the HTTP API.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates an APIError carrying extra context.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

var (
	ErrInvalidRequest    = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrNotFound          = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
	ErrInternalServer    = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrQueueUnavailable  = New(http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "Benchmark queue is not accepting jobs")
)

// NotFound creates a not-found error for a named resource.
func NotFound(resource, id string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", resource+" not found", map[string]string{"id": id})
}

// Internal wraps an unexpected error. The cause goes to the log, not the
// response body.
func Internal(err error) *APIError {
	return New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
}
