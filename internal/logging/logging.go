// Package logging configures the process-wide logger from a verbosity
// count.
//
// Tools call Setup exactly once, after flags are parsed and before any
// work is done. Every other package logs through the charmbracelet/log
// default logger, so the level chosen here applies everywhere.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultVerbosity is the verbosity of a tool run without -v or -q.
const DefaultVerbosity = 1

// LevelForVerbosity maps a verbosity count to a log level:
// 0 or less logs errors only, 1 adds warnings, 2 adds info and 3 or more
// adds debug output.
func LevelForVerbosity(verbosity int) log.Level {
	switch {
	case verbosity <= 0:
		return log.ErrorLevel
	case verbosity == 1:
		return log.WarnLevel
	case verbosity == 2:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}

// Options controls Setup.
type Options struct {
	// Verbosity is the verbosity count, see LevelForVerbosity.
	Verbosity int

	// LogFile, when set, receives a copy of every log line. The file is
	// opened for appending and created if missing.
	LogFile string

	// Output is where log lines are written. Defaults to os.Stderr.
	Output io.Writer

	// Prefix is printed before every line, typically the tool name.
	Prefix string
}

// Setup builds the default logger from opts and installs it with
// log.SetDefault. The returned closer releases the log file, if any; it is
// safe to call when no file was opened.
func Setup(opts Options) (*log.Logger, io.Closer, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.LogFile, err)
		}
		out = io.MultiWriter(out, f)
		closer = f
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:  LevelForVerbosity(opts.Verbosity),
		Prefix: opts.Prefix,
	})
	log.SetDefault(logger)

	if opts.LogFile != "" {
		logger.Info("Logging to file", "path", opts.LogFile, "level", logger.GetLevel())
	}
	return logger, closer, nil
}

// SetVerbosity changes the level of the default logger.
func SetVerbosity(verbosity int) {
	log.SetLevel(LevelForVerbosity(verbosity))
}

// LogCommandLine logs the command line the process was started with.
func LogCommandLine(args []string) {
	log.Info("Run with command line: " + strings.Join(args, " "))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
