// Package cli turns Tool implementations into cobra commands.
//
// A tool provides its documentation text and an Execute method; NewCommand
// derives the command name, summary and long help from them and adds the
// flags shared by every tool (verbosity, log file, optionally a
// configuration file). NewRootCommand groups several tools as subcommands of
// one binary, and Execute runs that binary and maps errors to exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/toolbelt/internal/cliargs"
	"github.com/shinji-kodama/toolbelt/internal/model"
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates the parent command of a multi-tool binary.
//
// The root command itself does not perform any action. It provides help
// text, --version and the global --json flag, which switches error output
// (and the output of tools that honor JSONOutput) to JSON. Every tool
// becomes a subcommand named after it.
func NewRootCommand(name, doc string, tools ...Tool) *cobra.Command {
	long := cleanDoc(doc)

	rootCmd := &cobra.Command{
		Use:   name,
		Short: firstSentence(long),
		Long:  long,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}
	rootCmd.SetFlagErrorFunc(flagError)

	// PersistentFlags are inherited by all subcommands, so --json is
	// accepted before or after the subcommand name.
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	for _, tool := range tools {
		AddSubcommand(rootCmd, tool)
	}

	cliargs.OptionalGroup(rootCmd)
	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// Errors are printed to stderr and the process exits with the code chosen
// by model.ExitCodeFor: CLIError types carry their own exit codes, other
// errors are classified by kind.
func Execute(rootCmd *cobra.Command) {
	if code := execute(rootCmd); code != model.ExitSuccess {
		os.Exit(int(code))
	}
}

func execute(rootCmd *cobra.Command) model.ExitCode {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return model.ExitSuccess
	}

	if cmd == nil {
		cmd = rootCmd
	}
	printError(cmd.ErrOrStderr(), jsonFlag(cmd), err)
	return model.ExitCodeFor(err)
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, jsonOutput bool, err error) {
	message, detail := err.Error(), ""

	// A CLIError separates the user-facing message from its cause.
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		message = cliErr.Message
		if cliErr.Err != nil {
			detail = cliErr.Err.Error()
		}
	}

	if jsonOutput {
		// JSON error format: {"error": {"message", "code", "detail"}}.
		// We write to stderr for errors, even in JSON mode, because stdout
		// is reserved for successful command output.
		errObj := map[string]any{
			"message": message,
			"code":    int(model.ExitCodeFor(err)),
		}
		if detail != "" {
			errObj["detail"] = detail
		}
		data, _ := json.MarshalIndent(map[string]any{"error": errObj}, "", "  ")
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	// Text format: "Error: <message>" on stderr.
	if detail != "" {
		_, _ = fmt.Fprintf(w, "Error: %s: %s\n", message, detail)
	} else {
		_, _ = fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// firstSentence is Help for a plain documentation string.
func firstSentence(doc string) string {
	return Help(docTool(doc))
}

// docTool lets helpers that work on tools operate on bare documentation.
type docTool string

func (d docTool) Doc() string { return string(d) }

func (docTool) Execute(_ context.Context, _ []string) error {
	return model.ErrNotImplemented
}
