package model

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Error kinds. Each validator, helper and runner in toolbelt fails with an
// error that matches exactly one of these through errors.Is.
var (
	// ErrArgumentConflict means two or more arguments contradict each other,
	// e.g. a minimum greater than a maximum.
	ErrArgumentConflict = errors.New("argument conflict")

	// ErrDirectoryExists means a directory is present where none may be.
	ErrDirectoryExists = fmt.Errorf("directory exists: %w", fs.ErrExist)

	// ErrDirectoryNotFound means a required directory does not exist.
	ErrDirectoryNotFound = fmt.Errorf("directory not found: %w", fs.ErrNotExist)

	// ErrExecutableNotFound means an executable is not on the search path.
	ErrExecutableNotFound = fmt.Errorf("executable not found: %w", fs.ErrNotExist)

	// ErrFileExists means a file is present where none may be.
	ErrFileExists = fmt.Errorf("file exists: %w", fs.ErrExist)

	// ErrFileNotFound means a required file does not exist.
	ErrFileNotFound = fmt.Errorf("file not found: %w", fs.ErrNotExist)

	// ErrGetter means a value could not be produced by an accessor.
	ErrGetter = errors.New("getter error")

	ErrIsAFile             = errors.New("is a file")
	ErrNotAFile            = errors.New("not a file")
	ErrNotADirectory       = errors.New("not a directory")
	ErrNotAFileOrDirectory = errors.New("not a file or directory")

	// ErrUnsupportedPlatform means the current GOOS is not in the set of
	// platforms an operation supports.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrType means a value has the wrong type or cannot be cast.
	ErrType = errors.New("wrong type")

	// ErrValue means a value has the right type but is out of range, not
	// one of the allowed options, or a collection of the wrong length.
	ErrValue = errors.New("invalid value")

	// ErrArgumentType marks a validator failure raised while parsing a
	// command-line flag or positional argument.
	ErrArgumentType = errors.New("invalid argument")

	// ErrNotImplemented is returned by Execute methods a tool did not override.
	ErrNotImplemented = errors.New("not implemented")

	// ErrCommandFailed means a subprocess exited with an unacceptable code.
	ErrCommandFailed = errors.New("command failed")

	// ErrTimeout means a subprocess did not finish within its timeout.
	ErrTimeout = errors.New("timed out")
)

// Error is a classified error. Message is shown to the user as-is; Kind is
// one of the Err* sentinels and Err is the underlying cause, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// Error returns Message, followed by the cause when there is one.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around cause.
func Wrap(kind error, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// CommandError reports a subprocess whose exit code was not acceptable.
// The captured output is kept so that the message alone is enough to
// diagnose the failure from a CLI error line.
type CommandError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "subprocess for command:\n%s\n\n", e.Command)
	fmt.Fprintf(&b, "failed with exit code %d;\n\n", e.ExitCode)
	fmt.Fprintf(&b, "STDOUT:\n%s\n\n", e.Stdout)
	fmt.Fprintf(&b, "STDERR:\n%s", e.Stderr)
	return b.String()
}

// Is makes errors.Is(err, ErrCommandFailed) true for any CommandError.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}
