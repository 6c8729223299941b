package internal

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/lakelore/internal/store"
)

// Exit code constants for the CLI
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitError indicates a general error
	ExitError = 1
	// ExitNotFound indicates the requested lake does not exist
	ExitNotFound = 2
	// ExitTimeout indicates the operation timed out
	ExitTimeout = 3
	// ExitCancelled indicates the operation was cancelled
	ExitCancelled = 4
	// ExitConfigError indicates a configuration error
	ExitConfigError = 10
	// ExitConnectionError indicates the database could not be reached
	ExitConnectionError = 12
	// ExitQueryError indicates a query failed or returned undecodable rows
	ExitQueryError = 13
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// HandleError prints err to the command's error output and returns the
// exit code for it.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Error())
		return cliErr.Code
	}

	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		cmd.PrintErrln("Error:", storeErr.Error())
		if verboseRequested(cmd) {
			if storeErr.Query != "" {
				cmd.PrintErrln("Query:", storeErr.Query)
			}
			for k, v := range storeErr.Context {
				cmd.PrintErrf("  %s: %v\n", k, v)
			}
		}
		return mapStoreErrorToExitCode(storeErr)
	}

	cmd.PrintErrln("Error:", err)
	return ExitError
}

func mapStoreErrorToExitCode(err *store.StoreError) int {
	switch err.Code {
	case store.ErrCodeConnectionFailed:
		return ExitConnectionError
	case store.ErrCodeQueryFailed, store.ErrCodeDecodeFailed:
		return ExitQueryError
	default:
		return ExitError
	}
}

func verboseRequested(cmd *cobra.Command) bool {
	flag := cmd.Flag("verbose")
	return flag != nil && flag.Changed
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Retryable
	}
	return false
}

// IsVerbose checks if verbose mode is enabled via environment variable or flag.
// It is used by panic recovery, before flags are parsed.
func IsVerbose() bool {
	if os.Getenv("LAKELORE_VERBOSE") != "" {
		return true
	}

	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}

	return false
}
