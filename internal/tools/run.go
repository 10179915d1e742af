package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/toolbelt/internal/cli"
	"github.com/shinji-kodama/toolbelt/internal/cliargs"
	"github.com/shinji-kodama/toolbelt/internal/process"
	"github.com/shinji-kodama/toolbelt/internal/validation"
)

// RunTool implements "toolbelt run".
type RunTool struct {
	// timeout is the maximum run time in seconds; 0 disables it.
	timeout float64

	// accept lists the exit codes treated as success.
	accept []int

	// anyExitCode disables exit code checking.
	anyExitCode bool

	// stream relays output while the command runs instead of at the end.
	stream bool

	// dir is the working directory of the command.
	dir string
}

func (t *RunTool) Doc() string {
	return `
		Run a shell command and report its exit code and output.

		The arguments are joined with spaces and passed to the platform
		shell (sh -c, or cmd /C on Windows). The command fails when its exit
		code is not one of the accepted codes, 0 unless --accept says
		otherwise, or when it runs longer than --timeout seconds.

		Examples:
		  toolbelt run -- make test
		  toolbelt run --stream --timeout 30 -- ./long-job.sh
		  toolbelt run --accept 0,1 -- grep -q pattern file.txt
		  toolbelt --json run -- uname -a`
}

func (t *RunTool) RegisterFlags(cmd *cobra.Command) {
	cmd.Args = cobra.MinimumNArgs(1)

	t.timeout = process.DefaultTimeout.Seconds()
	t.accept = []int{0}

	f := cmd.Flags()
	f.Var(cliargs.FloatValue(&t.timeout, validation.Min(0.0)), "timeout", "maximum run time in seconds, 0 for none")
	f.Var(cliargs.IntsValue(&t.accept, 0, validation.Min(0), validation.Max(255)), "accept", "exit codes treated as success")
	f.BoolVar(&t.anyExitCode, "any-exit-code", false, "never fail because of the exit code")
	f.BoolVar(&t.stream, "stream", false, "relay output while the command runs")
	f.Var(cliargs.InputDirectoryPathValue(&t.dir, true), "dir", "working directory of the command")

	cliargs.ArgGroups(cmd, "execution")["execution"].Add("timeout", "accept", "any-exit-code", "dir")
	cmd.MarkFlagsMutuallyExclusive("accept", "any-exit-code")
}

func (t *RunTool) Execute(ctx context.Context, args []string) error {
	command := strings.Join(args, " ")
	opts := t.options()

	// Step 1: Run the command, relaying output live when asked to.
	var (
		result *process.Result
		err    error
	)
	stdout := cli.Stdout(ctx)
	if t.stream {
		stderr := stdout
		if cmd := cli.Command(ctx); cmd != nil {
			stderr = cmd.ErrOrStderr()
		}
		// In JSON mode stdout is reserved for the result document.
		if cli.JSONOutput(ctx) {
			stdout = stderr
		}
		opts = append(opts, process.WithStdout(stdout), process.WithStderr(stderr))
		result, err = process.Stream(ctx, command, opts...)
	} else {
		result, err = process.Run(ctx, command, opts...)
	}
	if result == nil {
		return err
	}

	// Step 2: Report the result. A failed command is still reported
	// before its error is returned.
	log.Info("Command finished", "command", command, "exitCode", result.ExitCode)
	if cli.JSONOutput(ctx) {
		if jsonErr := writeJSON(cli.Stdout(ctx), result); jsonErr != nil {
			return jsonErr
		}
	} else if !t.stream {
		printRunResultText(ctx, result)
	}
	return err
}

func (t *RunTool) options() []process.Option {
	opts := []process.Option{
		process.WithTimeout(time.Duration(t.timeout * float64(time.Second))),
		process.WithAcceptableExitCodes(t.accept...),
	}
	if t.anyExitCode {
		opts = append(opts, process.WithAnyExitCode())
	}
	if t.dir != "" {
		opts = append(opts, process.WithDir(t.dir))
	}
	return opts
}

// printRunResultText writes the captured streams where they came from.
func printRunResultText(ctx context.Context, result *process.Result) {
	_, _ = fmt.Fprint(cli.Stdout(ctx), result.Stdout)
	if cmd := cli.Command(ctx); cmd != nil && result.Stderr != "" {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
	}
}
