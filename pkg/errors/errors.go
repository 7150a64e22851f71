package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of a failed API operation
type ErrorType string

const (
	ErrorTypeUnauthenticated ErrorType = "unauthenticated"
	ErrorTypeTransport       ErrorType = "transport"
	ErrorTypeRemoteRejected  ErrorType = "remote_rejected"
	ErrorTypeUnexpected      ErrorType = "unexpected"
)

// Reasons reported alongside an ErrorType. Remote reasons usually echo the
// API's own error_type field.
const (
	ReasonInvalidArgument   = "invalid_argument"
	ReasonNotFound          = "not_found"
	ReasonRateLimit         = "rate_limit"
	ReasonServerError       = "server_error"
	ReasonBadPassword       = "bad_password"
	ReasonTwoFactorRequired = "two_factor_required"
	ReasonMediaTypeMismatch = "media_type_mismatch"
	ReasonParsing           = "parsing"
	ReasonCanceled          = "canceled"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Reason  string

	cause error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s error (code %d, %s): %s", e.Type, e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Unauthenticated is returned when an operation runs before a successful login
func Unauthenticated(operation string) *Error {
	return &Error{
		Type:    ErrorTypeUnauthenticated,
		Message: fmt.Sprintf("%s requires an authenticated session", operation),
	}
}

// Transport wraps a network level failure. Cancellation of the caller's
// context is reported with ReasonCanceled.
func Transport(err error) *Error {
	e := &Error{
		Type:    ErrorTypeTransport,
		Message: fmt.Sprintf("network error: %v", err),
		cause:   err,
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		e.Reason = ReasonCanceled
	}
	return e
}

// RemoteRejected builds an error for a semantic refusal by the remote API
func RemoteRejected(code int, reason, message string) *Error {
	if message == "" {
		message = http.StatusText(code)
	}
	return &Error{
		Type:    ErrorTypeRemoteRejected,
		Message: message,
		Code:    code,
		Reason:  reason,
	}
}

// InvalidArgument is a local validation failure raised before any I/O
func InvalidArgument(format string, args ...interface{}) *Error {
	return &Error{
		Type:    ErrorTypeUnexpected,
		Message: fmt.Sprintf(format, args...),
		Reason:  ReasonInvalidArgument,
	}
}

// Unexpected wraps anything that does not fit the other categories
func Unexpected(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Type:    ErrorTypeUnexpected,
		Message: err.Error(),
		cause:   err,
	}
}

// From converts any error into an *Error, keeping typed errors as they are
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return Unexpected(err)
}

// Is reports whether err is an *Error of the given type
func Is(err error, errorType ErrorType) bool {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var apiErr *Error
	if !stderrors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Type {
	case ErrorTypeTransport:
		return apiErr.Reason != ReasonCanceled
	case ErrorTypeRemoteRejected:
		return IsRetryableStatusCode(apiErr.Code)
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 400, 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500
	}
}
