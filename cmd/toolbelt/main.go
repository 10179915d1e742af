// Package main is the entry point for the toolbelt CLI.
//
// This binary bundles small helpers for scripts and build pipelines:
// running shell commands with timeouts and exit code checks, scratch
// directories, path inspection, output backups and executable lookup. It
// delegates all functionality to the internal/tools package, whose tools
// are turned into cobra commands by internal/cli.
//
// Build-time variables (version, commit, date) are injected via ldflags.
// During development, they default to "dev", "none", and "unknown"
// respectively.
package main

import (
	"github.com/shinji-kodama/toolbelt/internal/cli"
	"github.com/shinji-kodama/toolbelt/internal/tools"
)

// version, commit, and date are set at build time via ldflags, e.g.
//
//	go build -ldflags "-X main.version=1.2.0 -X main.commit=$(git rev-parse HEAD)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const doc = `
	Small, scriptable helpers for shell pipelines.

	Every subcommand validates its arguments before doing any work, logs to
	stderr (-v for more, -q for errors only, -l to also log to a file) and
	exits with a code that tells what went wrong: 2 for invalid arguments,
	3 for missing files or executables, 4 for paths of the wrong type, 5 for
	failed commands and 6 for timeouts. With --json, results and errors are
	printed as JSON.`

func main() {
	// Inject build-time version info into the CLI package.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Create the root command with one subcommand per tool, then execute
	// it. Execute handles error formatting and exit codes.
	rootCmd := cli.NewRootCommand("toolbelt", doc, tools.All()...)
	cli.Execute(rootCmd)
}
