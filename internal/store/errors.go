package store

import (
	"errors"
	"fmt"
	"maps"
)

// StoreErrorCode represents specific error codes for store operations.
type StoreErrorCode string

const (
	ErrCodeConnectionFailed StoreErrorCode = "CONNECTION_FAILED"
	ErrCodeQueryFailed      StoreErrorCode = "QUERY_FAILED"
	ErrCodeDecodeFailed     StoreErrorCode = "DECODE_FAILED"
	ErrCodeCacheCleared     StoreErrorCode = "CACHE_CLEARED"
)

// StoreError is a structured error for store operations. Query errors carry
// the statement and parameters that failed.
type StoreError struct {
	Code      StoreErrorCode
	Message   string
	Cause     error
	Query     string
	Params    map[string]any
	Context   map[string]any
	Retryable bool
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a StoreError with the same code.
func (e *StoreError) Is(target error) bool {
	var storeErr *StoreError
	if errors.As(target, &storeErr) {
		return e.Code == storeErr.Code
	}
	return false
}

// WithContext adds a debugging key/value. Returns the error for chaining.
func (e *StoreError) WithContext(key string, value any) *StoreError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithQuery records the statement that caused the error.
func (e *StoreError) WithQuery(query string) *StoreError {
	e.Query = query
	return e
}

// WithParams records a copy of the parameters bound to the failed statement.
func (e *StoreError) WithParams(params map[string]any) *StoreError {
	e.Params = maps.Clone(params)
	return e
}

// NewConnectionError creates a connection failure error.
// Connection failures are retryable.
func NewConnectionError(message string, cause error) *StoreError {
	return &StoreError{
		Code:      ErrCodeConnectionFailed,
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// NewQueryError creates a query execution error.
func NewQueryError(message string, cause error) *StoreError {
	return &StoreError{
		Code:    ErrCodeQueryFailed,
		Message: message,
		Cause:   cause,
	}
}

// NewDecodeError creates an error for records that do not fit their model.
func NewDecodeError(message string, cause error) *StoreError {
	return &StoreError{
		Code:    ErrCodeDecodeFailed,
		Message: message,
		Cause:   cause,
	}
}

// IsConnectionError reports whether err is, or wraps, a connection failure.
func IsConnectionError(err error) bool {
	return hasCode(err, ErrCodeConnectionFailed)
}

// IsQueryError reports whether err is, or wraps, a query failure.
func IsQueryError(err error) bool {
	return hasCode(err, ErrCodeQueryFailed)
}

func hasCode(err error, code StoreErrorCode) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}
