package apierror

import (
	"encoding/json"
	"net/http"
)

// Error represents a structured API error response.
// Code is a stable machine-readable identifier: clients distinguish
// "retry after re-reading state", "race lost" and "fix your input" by it.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// WithDetails adds field-level error details.
func (e *Error) WithDetails(details ...FieldError) *Error {
	e.Details = details
	return e
}

// ToJSON converts the error to JSON bytes.
func (e *Error) ToJSON() []byte {
	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"code":    e.Code,
			"message": e.Message,
		},
	}

	if len(e.Details) > 0 {
		response["error"].(map[string]interface{})["details"] = e.Details
	}

	data, _ := json.Marshal(response)
	return data
}

// New creates an error with an explicit status and code.
// Prefer the named constructors below for the common cases.
func New(statusCode int, code, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, "BAD_REQUEST", message)
}

// ValidationError creates a 400 error with validation details.
func ValidationError(message string, details ...FieldError) *Error {
	return New(http.StatusBadRequest, "VALIDATION_ERROR", message).WithDetails(details...)
}

// Unauthorized creates a 401 Unauthorized error.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return New(http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden creates a 403 Forbidden error.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Access denied"
	}
	return New(http.StatusForbidden, "FORBIDDEN", message)
}

// NotFound creates a 404 Not Found error.
func NotFound(code, message string) *Error {
	if code == "" {
		code = "NOT_FOUND"
	}
	if message == "" {
		message = "Resource not found"
	}
	return New(http.StatusNotFound, code, message)
}

// Conflict creates a 409 Conflict error. These are state-conflict failures:
// the caller may retry only after re-reading current state.
func Conflict(code, message string) *Error {
	if code == "" {
		code = "CONFLICT"
	}
	return New(http.StatusConflict, code, message)
}

// TooManyRequests creates a 429 rate-limit error.
func TooManyRequests(message string) *Error {
	if message == "" {
		message = "Too many requests, please try again later"
	}
	return New(http.StatusTooManyRequests, "RATE_LIMITED", message)
}

// InternalError creates a 500 Internal Server Error.
// Internal detail is logged server-side, never sent to the caller.
func InternalError(message string) *Error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return New(http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// ServiceUnavailable creates a 503 Service Unavailable error.
func ServiceUnavailable(message string) *Error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message)
}
