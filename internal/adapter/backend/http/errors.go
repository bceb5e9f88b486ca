package http

import "fmt"

// ErrorType represents the category of backend error that occurred.
type ErrorType int

const (
	ErrTypeAccessDenied ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeClient
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAccessDenied:
		return "access denied"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeModelNotFound:
		return "model not found"
	case ErrTypeClient:
		return "client error"
	default:
		return "unknown error"
	}
}

// Error represents a classified backend error with additional context.
// The Retryable flag drives the invoker's retry decision; no caller should
// branch on concrete backend exception types.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Backend    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Backend, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewAccessDeniedError creates a new access denied error.
func NewAccessDeniedError(backend, message string) *Error {
	return &Error{
		Type:       ErrTypeAccessDenied,
		Message:    message,
		StatusCode: 403,
		Retryable:  false,
		Backend:    backend,
	}
}

// NewRateLimitError creates a new rate limit error.
func NewRateLimitError(backend, message string) *Error {
	return &Error{
		Type:       ErrTypeRateLimit,
		Message:    message,
		StatusCode: 429,
		Retryable:  true,
		Backend:    backend,
	}
}

// NewServiceUnavailableError creates a new service unavailable error.
func NewServiceUnavailableError(backend, message string) *Error {
	return &Error{
		Type:       ErrTypeServiceUnavailable,
		Message:    message,
		StatusCode: 503,
		Retryable:  true,
		Backend:    backend,
	}
}

// NewInvalidRequestError creates a new invalid request error.
func NewInvalidRequestError(backend, message string) *Error {
	return &Error{
		Type:       ErrTypeInvalidRequest,
		Message:    message,
		StatusCode: 400,
		Retryable:  false,
		Backend:    backend,
	}
}

// NewTimeoutError creates a new model timeout error.
func NewTimeoutError(backend, message string) *Error {
	return &Error{
		Type:       ErrTypeTimeout,
		Message:    message,
		StatusCode: 0,
		Retryable:  true,
		Backend:    backend,
	}
}

// NewModelNotFoundError creates a new model not found error.
func NewModelNotFoundError(backend, message string) *Error {
	return &Error{
		Type:       ErrTypeModelNotFound,
		Message:    message,
		StatusCode: 404,
		Retryable:  false,
		Backend:    backend,
	}
}

// NewClientError creates a new generic client-side error.
func NewClientError(backend, message string) *Error {
	return &Error{
		Type:       ErrTypeClient,
		Message:    message,
		StatusCode: 0,
		Retryable:  false,
		Backend:    backend,
	}
}
