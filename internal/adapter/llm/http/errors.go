package http

import "fmt"

// ErrorType represents the category of error that occurred.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeOverloaded
	ErrTypeTimeout
	ErrTypeUnexpectedStatus
	ErrTypeMalformedResponse
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeOverloaded:
		return "upstream overloaded"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeUnexpectedStatus:
		return "unexpected status"
	case ErrTypeMalformedResponse:
		return "malformed response"
	default:
		return "unknown error"
	}
}

// Error represents an upstream HTTP failure with enough context to
// decide whether the call may be retried.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Provider   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Type.String(), e.Message, e.StatusCode)
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

// NewAuthenticationError creates a non-retryable credentials error.
func NewAuthenticationError(provider, message string) *Error {
	return &Error{
		Type:       ErrTypeAuthentication,
		Message:    message,
		StatusCode: 401,
		Retryable:  false,
		Provider:   provider,
	}
}

// NewOverloadedError creates the retryable error produced when the
// upstream signals transient overload.
func NewOverloadedError(provider, message string, statusCode int) *Error {
	return &Error{
		Type:       ErrTypeOverloaded,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  true,
		Provider:   provider,
	}
}

// NewTimeoutError creates a retryable network/timeout error.
func NewTimeoutError(provider, message string) *Error {
	return &Error{
		Type:       ErrTypeTimeout,
		Message:    message,
		StatusCode: 0,
		Retryable:  true,
		Provider:   provider,
	}
}

// NewUnexpectedStatusError creates the fatal error produced when the
// upstream returns a status that is neither success nor overload.
func NewUnexpectedStatusError(provider, message string, statusCode int) *Error {
	return &Error{
		Type:       ErrTypeUnexpectedStatus,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  false,
		Provider:   provider,
	}
}

// NewMalformedResponseError creates the fatal error produced when an
// upstream payload is missing expected keys.
func NewMalformedResponseError(provider, message string) *Error {
	return &Error{
		Type:       ErrTypeMalformedResponse,
		Message:    message,
		StatusCode: 0,
		Retryable:  false,
		Provider:   provider,
	}
}
