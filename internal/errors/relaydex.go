package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
)

// FetchError marks a failed metadata fetch. It is logged and converted into a
// placeholder record by the registry, never returned to lookup callers.
func FetchError(url string, cause error) *AppError {
	code := "FETCH_FAILED"
	severity := SeverityLow
	errorType := ErrorTypeNetwork

	var netErr net.Error
	switch {
	case Is(cause, context.DeadlineExceeded):
		code = "FETCH_TIMEOUT"
		errorType = ErrorTypeTimeout
	case Is(cause, context.Canceled):
		code = "FETCH_CANCELED"
	case stderrors.As(cause, &netErr) && netErr.Timeout():
		code = "FETCH_TIMEOUT"
		errorType = ErrorTypeTimeout
	case isTemporaryNetError(cause):
		code = "FETCH_UNREACHABLE"
	default:
		errorType = ErrorTypeExternal
	}

	return Wrap(cause, errorType, code, "Relay metadata fetch failed").
		WithSeverity(severity).
		WithRelay(url)
}

// PersistenceError wraps a metadata store failure for the given operation.
func PersistenceError(operation, url string, cause error) *AppError {
	return Wrap(cause, ErrorTypeDatabase, "PERSISTENCE_ERROR", fmt.Sprintf("Relay store %s failed", operation)).
		WithSeverity(SeverityHigh).
		WithRelay(url)
}

// StartupError is a failure the process cannot continue from.
func StartupError(component string, cause error) *AppError {
	return Wrap(cause, ErrorTypeInternal, "STARTUP_FAILED", fmt.Sprintf("Startup of %s failed", component)).
		WithSeverity(SeverityCritical)
}

// ValidationError creates a validation error
func ValidationError(code, message string) *AppError {
	return New(ErrorTypeValidation, code, message).WithSeverity(SeverityLow)
}

// DatabaseConnectionError creates an error for database connection issues
func DatabaseConnectionError(cause error) *AppError {
	return Wrap(cause, ErrorTypeDatabase, "DB_CONNECTION_ERROR", "Database connection failed").
		WithSeverity(SeverityCritical)
}

// IsRecoverable determines if an error is recoverable (can be retried)
func IsRecoverable(err error) bool {
	appErr, ok := As(err)
	if !ok {
		return false
	}
	switch appErr.Type {
	case ErrorTypeTimeout, ErrorTypeNetwork, ErrorTypeDatabase:
		return appErr.Severity != SeverityCritical
	case ErrorTypeExternal:
		return true
	case ErrorTypeValidation, ErrorTypeNotFound:
		return false
	case ErrorTypeInternal:
		return appErr.Severity == SeverityLow || appErr.Severity == SeverityMedium
	}
	return false
}

// isTemporaryNetError checks if a network error is temporary.
// net.Error.Temporary is deprecated, so this matches on the message.
func isTemporaryNetError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"no route to host",
		"network is unreachable",
		"connection reset by peer",
		"broken pipe",
		"i/o timeout",
		"no such host",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
