package model

import (
	"errors"
	"fmt"
	"io/fs"
)

// ExitCode defines the process exit codes used by toolbelt binaries.
// These codes allow scripts and CI systems to programmatically determine
// the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitUsageError indicates bad arguments: conflicts, wrong types,
	// out-of-range values or unknown flags.
	ExitUsageError ExitCode = 2

	// ExitNotFound indicates a file, directory or executable was missing.
	ExitNotFound ExitCode = 3

	// ExitWrongType indicates a path exists but is the wrong kind of entry,
	// or the platform is unsupported.
	ExitWrongType ExitCode = 4

	// ExitCommandFailed indicates a subprocess exited with an unacceptable code.
	ExitCommandFailed ExitCode = 5

	// ExitTimeout indicates a subprocess exceeded its timeout.
	ExitTimeout ExitCode = 6

	// ExitPermissionDenied indicates a filesystem permission check failed.
	ExitPermissionDenied ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeFor picks the exit code a binary should terminate with for err.
// A CLIError anywhere in the chain wins; otherwise the error kind decides.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return ExitTimeout
	case errors.Is(err, ErrCommandFailed):
		return ExitCommandFailed
	case errors.Is(err, fs.ErrPermission):
		return ExitPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return ExitNotFound
	case errors.Is(err, ErrIsAFile),
		errors.Is(err, ErrNotAFile),
		errors.Is(err, ErrNotADirectory),
		errors.Is(err, ErrNotAFileOrDirectory),
		errors.Is(err, ErrUnsupportedPlatform):
		return ExitWrongType
	case errors.Is(err, ErrArgumentConflict),
		errors.Is(err, ErrArgumentType),
		errors.Is(err, ErrType),
		errors.Is(err, ErrValue):
		return ExitUsageError
	default:
		return ExitGeneralError
	}
}
