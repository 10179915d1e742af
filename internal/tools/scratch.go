package tools

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/toolbelt/internal/cli"
	"github.com/shinji-kodama/toolbelt/internal/cliargs"
	"github.com/shinji-kodama/toolbelt/internal/fileutil"
	"github.com/shinji-kodama/toolbelt/internal/process"
	"github.com/shinji-kodama/toolbelt/internal/validation"
)

// ScratchTool implements "toolbelt scratch".
type ScratchTool struct {
	// timeout is the maximum run time in seconds; 0 disables it.
	timeout float64

	// fileSuffix, when set, also reserves a scratch file with this suffix.
	fileSuffix string

	// files performs the temporary file handling; nil means the OS
	// filesystem.
	files *fileutil.Files
}

func (t *ScratchTool) Doc() string {
	return `
		Run a shell command inside a throwaway directory.

		The command starts in a new, empty temporary directory, which is also
		exported as SCRATCH_DIR. With --file, SCRATCH_FILE names a file that
		does not exist yet, for tools that insist on creating their output
		themselves. Both are removed when the command ends, whether it
		succeeds, fails or times out.

		Examples:
		  toolbelt scratch -- 'git clone --depth 1 https://example.com/repo.git && ls repo'
		  toolbelt scratch --file .csv -- 'export-data > "$SCRATCH_FILE" && wc -l "$SCRATCH_FILE"'`
}

func (t *ScratchTool) RegisterFlags(cmd *cobra.Command) {
	cmd.Args = cobra.MinimumNArgs(1)

	t.timeout = process.DefaultTimeout.Seconds()
	cmd.Flags().Var(cliargs.FloatValue(&t.timeout, validation.Min(0.0)), "timeout", "maximum run time in seconds, 0 for none")
	cmd.Flags().StringVar(&t.fileSuffix, "file", "", "also provide SCRATCH_FILE, a file path with this suffix (e.g. .csv)")
	cmd.Flags().Lookup("file").NoOptDefVal = ".tmp"
}

func (t *ScratchTool) Execute(ctx context.Context, args []string) error {
	files := t.files
	if files == nil {
		files = fileutil.Default()
	}
	command := strings.Join(args, " ")

	return files.WithTempDir(func(dir string) error {
		log.Info("Created scratch directory", "path", dir)
		env := []string{"SCRATCH_DIR=" + dir}

		if t.fileSuffix == "" {
			return t.run(ctx, command, dir, env)
		}
		return files.WithTempFile(t.fileSuffix, func(path string) error {
			return t.run(ctx, command, dir, append(env, "SCRATCH_FILE="+path))
		})
	})
}

func (t *ScratchTool) run(ctx context.Context, command, dir string, env []string) error {
	result, err := process.Run(ctx, command,
		process.WithDir(dir),
		process.WithEnv(env...),
		process.WithTimeout(time.Duration(t.timeout*float64(time.Second))),
	)
	if result == nil {
		return err
	}

	if cli.JSONOutput(ctx) {
		if jsonErr := writeJSON(cli.Stdout(ctx), result); jsonErr != nil {
			return jsonErr
		}
		return err
	}
	printRunResultText(ctx, result)
	return err
}
