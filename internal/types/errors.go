package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for lakelore errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// LoreError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type LoreError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *LoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *LoreError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a LoreError with the same Code.
func (e *LoreError) Is(target error) bool {
	var loreErr *LoreError
	if errors.As(target, &loreErr) {
		return e.Code == loreErr.Code
	}
	return false
}

// NewError creates a new non-retryable LoreError with the given code and message.
func NewError(code ErrorCode, message string) *LoreError {
	return &LoreError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable LoreError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *LoreError {
	return &LoreError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable LoreError that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *LoreError {
	return &LoreError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRetryable reports whether err (or anything it wraps) is a retryable LoreError.
func IsRetryable(err error) bool {
	var loreErr *LoreError
	if errors.As(err, &loreErr) {
		return loreErr.Retryable
	}
	return false
}

// CodeOf returns the code of the first LoreError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var loreErr *LoreError
	if errors.As(err, &loreErr) {
		return loreErr.Code
	}
	return ""
}
