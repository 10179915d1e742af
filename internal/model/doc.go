// Package model defines the error taxonomy and exit codes shared by every
// toolbelt package.
//
// Errors are a flat set of kinds (ErrFileNotFound, ErrValue, ...) that
// callers match with errors.Is. Kinds that describe missing or already
// existing filesystem entries also match fs.ErrNotExist and fs.ErrExist, so
// code written against the standard library keeps working.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
