package domain

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed chain or request body.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeAuthentication indicates an authentication failure.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypeNotFound indicates a resource was not found.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeHook indicates a hook aborted the chain.
	ErrorTypeHook ErrorType = "hook"

	// ErrorTypeServer indicates an internal server error.
	ErrorTypeServer ErrorType = "server"
)

// ErrorCode provides additional specificity beyond the error type.
type ErrorCode string

const (
	ErrorCodeInvalidChain  ErrorCode = "invalid_chain"
	ErrorCodeInvalidAPIKey ErrorCode = "invalid_api_key"
	ErrorCodeHookFailed    ErrorCode = "hook_failed"
	ErrorCodeEngineFailed  ErrorCode = "engine_failed"
)

// APIError is the error body returned by the HTTP surface.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    ErrorCode `json:"code,omitempty"`
	Message string    `json:"message"`

	// StatusCode overrides the status derived from Type.
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the HTTP status code for this error.
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewAPIError creates a new API error.
func NewAPIError(errType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errType,
		Message: message,
	}
}

// WithCode adds an error code to the error.
func (e *APIError) WithCode(code ErrorCode) *APIError {
	e.Code = code
	return e
}

// WithStatusCode sets a specific HTTP status code.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// ErrInvalidChain creates an invalid request error for an undecodable chain.
func ErrInvalidChain(message string) *APIError {
	return NewAPIError(ErrorTypeInvalidRequest, message).WithCode(ErrorCodeInvalidChain)
}

// ErrAuthentication creates an authentication error.
func ErrAuthentication(message string) *APIError {
	return NewAPIError(ErrorTypeAuthentication, message).WithCode(ErrorCodeInvalidAPIKey)
}

// ErrHook creates an error for a chain aborted by a hook.
func ErrHook(message string) *APIError {
	return NewAPIError(ErrorTypeHook, message).WithCode(ErrorCodeHookFailed)
}

// ErrServer creates a server error.
func ErrServer(message string) *APIError {
	return NewAPIError(ErrorTypeServer, message)
}
