// Package validation provides validators for command-line input: numbers,
// strings and typed values with bounds and option sets, plus input/output
// file and directory paths and executables.
//
// Every validator takes a raw value and returns either the normalized value
// or an error whose kind (see package model) tells the caller what went
// wrong. Paths are expanded (~ and environment variables) and made absolute
// before any filesystem check.
package validation
