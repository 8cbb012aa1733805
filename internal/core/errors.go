// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Lookup errors
	ErrNotFound      = &Error{Code: "NOT_FOUND", Message: "no matching symbol or company"}
	ErrQuotaExceeded = &Error{Code: "QUOTA_EXCEEDED", Message: "provider request quota exhausted, wait or rotate the api key"}

	// Provider errors
	ErrProviderFailed = &Error{Code: "PROVIDER_FAILED", Message: "market data request failed"}

	// Watchlist errors
	ErrMalformedState = &Error{Code: "MALFORMED_STATE", Message: "persisted watchlist is malformed"}
	ErrInvalidInput   = &Error{Code: "INVALID_INPUT", Message: "missing or malformed input"}
	ErrStorageFailed  = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}

	// Access errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid api key"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
