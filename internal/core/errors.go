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
	// Market data errors
	ErrSymbolNotFound = &Error{Code: "SYMBOL_NOT_FOUND", Message: "symbol not found"}
	ErrNoData         = &Error{Code: "NO_DATA", Message: "no data available"}

	// Gateway errors
	ErrGatewayFailed  = &Error{Code: "GATEWAY_FAILED", Message: "gateway call failed"}
	ErrGatewayTimeout = &Error{Code: "GATEWAY_TIMEOUT", Message: "gateway call timeout"}

	// Provider factory errors
	ErrProviderUnknown = &Error{Code: "PROVIDER_UNKNOWN", Message: "unknown provider"}

	// Monitoring errors
	ErrMonitorFailed = &Error{Code: "MONITOR_FAILED", Message: "monitoring run failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Storage errors
	ErrCheckpointNotFound = &Error{Code: "CHECKPOINT_NOT_FOUND", Message: "checkpoint not found"}
)
