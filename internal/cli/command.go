package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shinji-kodama/toolbelt/internal/cliargs"
	"github.com/shinji-kodama/toolbelt/internal/logging"
	"github.com/shinji-kodama/toolbelt/internal/model"
)

// logFileTimeFormat is the timestamp layout of default log file names.
const logFileTimeFormat = "2006-01-02_15-04-05"

// Option customizes the command built by NewCommand.
type Option func(*commandOptions)

type commandOptions struct {
	configFile bool
	stdout     io.Writer
	stderr     io.Writer
}

// WithConfigFile adds -c/--config to the command. The named file is loaded
// before the tool runs: its "environment" block is exported, and its other
// keys set the flags that were not given on the command line. Environment
// variables named <NAME>_<FLAG> set flags too, and take precedence over the
// file.
func WithConfigFile() Option {
	return func(o *commandOptions) { o.configFile = true }
}

// WithOutput redirects the command's standard output and error, e.g. to
// buffers in tests.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *commandOptions) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// commonFlags holds the flags every tool command gets.
type commonFlags struct {
	// verbose counts -v occurrences on top of the default verbosity.
	verbose int

	// quiet drops the verbosity to errors only.
	quiet bool

	// logFile receives a copy of all log output when set.
	logFile string

	// config is the configuration file, for configurable tools.
	config string

	// logCloser releases the log file opened by setupLogging.
	logCloser io.Closer
}

// NewCommand builds the cobra command for tool.
//
// Besides the tool's own flags, the command gets the verbosity flags
// -v/--verbose (repeatable) and -q/--quiet, which are mutually exclusive,
// and -l/--log-file. Given without a value (-l or --log-file, not followed
// by "=path"), the log file is named after the tool and the current time.
//
// When the command runs it parses the command line, applies the
// configuration file (configurable tools only), sets up logging, logs the
// command line and finally calls tool.Execute.
func NewCommand(tool Tool, opts ...Option) *cobra.Command {
	o := &commandOptions{}
	if c, ok := tool.(Configurable); ok && c.ConfigFile() {
		o.configFile = true
	}
	for _, opt := range opts {
		opt(o)
	}

	name := Name(tool)
	flags := &commonFlags{}

	cmd := &cobra.Command{
		Use:   name,
		Short: Help(tool),
		Long:  Description(tool),

		// Errors are printed once, by Execute, in text or JSON form.
		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, tool, flags, args)
		},
	}
	if o.stdout != nil {
		cmd.SetOut(o.stdout)
	}
	if o.stderr != nil {
		cmd.SetErr(o.stderr)
	}
	cmd.SetFlagErrorFunc(flagError)

	if r, ok := tool.(FlagRegistrar); ok {
		r.RegisterFlags(cmd)
	}

	f := cmd.Flags()
	f.CountVarP(&flags.verbose, "verbose", "v", "increase verbosity, repeat for more output (-vv)")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "only log errors")
	f.StringVarP(&flags.logFile, "log-file", "l", "", "also write log output to this file")
	f.Lookup("log-file").NoOptDefVal = fmt.Sprintf("%s.%s.log", name, time.Now().Format(logFileTimeFormat))
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	if o.configFile {
		f.StringVarP(&flags.config, "config", "c", "", "read flag values from a YAML, JSON or TOML file")
		applyConfigBeforeRun(cmd, name, flags)
	}

	cliargs.OptionalGroup(cmd)
	return cmd
}

// AddSubcommand builds the command for tool and adds it to parent.
func AddSubcommand(parent *cobra.Command, tool Tool, opts ...Option) *cobra.Command {
	cmd := NewCommand(tool, opts...)
	parent.AddCommand(cmd)
	return cmd
}

// Verbosity returns the verbosity requested on cmd's command line:
// 0 with --quiet, otherwise the default plus one per -v.
func Verbosity(cmd *cobra.Command) int {
	if quiet, err := cmd.Flags().GetBool("quiet"); err == nil && quiet {
		return 0
	}
	count, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return logging.DefaultVerbosity
	}
	return logging.DefaultVerbosity + count
}

// Run executes tool as if it had been started from a shell with args.
// Errors are returned, not printed, which makes Run the entry point for
// testing tools.
func Run(ctx context.Context, tool Tool, args []string, opts ...Option) error {
	cmd := NewCommand(tool, opts...)

	// cobra falls back to os.Args when no arguments were set.
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func runTool(cmd *cobra.Command, tool Tool, flags *commonFlags, args []string) error {
	// Configurable tools set up logging before the configuration is
	// applied; everything else does it here.
	if err := setupLogging(cmd, flags); err != nil {
		return err
	}
	defer flags.closeLog()

	logging.LogCommandLine(commandLine(cmd, args))
	log.Debug("Running tool", "tool", cmd.CommandPath(), "args", strings.Join(args, " "))

	ctx := context.WithValue(cmd.Context(), commandKey{}, cmd)
	return tool.Execute(ctx, args)
}

// setupLogging configures the default logger from the verbosity and log
// file flags, once per run.
func setupLogging(cmd *cobra.Command, flags *commonFlags) error {
	if flags.logCloser != nil {
		return nil
	}
	_, closer, err := logging.Setup(logging.Options{
		Verbosity: Verbosity(cmd),
		LogFile:   flags.logFile,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to set up logging", err)
	}
	flags.logCloser = closer
	return nil
}

func (f *commonFlags) closeLog() {
	if f.logCloser != nil {
		_ = f.logCloser.Close()
		f.logCloser = nil
	}
}

// commandLine rebuilds the command line of cmd from its path, the flags
// that were set and the positional arguments. Slice flags are joined with
// commas.
func commandLine(cmd *cobra.Command, args []string) []string {
	parts := strings.Fields(cmd.CommandPath())
	cmd.Flags().Visit(func(f *pflag.Flag) {
		value := f.Value.String()
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			value = strings.Join(sv.GetSlice(), ",")
		}
		parts = append(parts, "--"+f.Name+"="+value)
	})
	return append(parts, args...)
}

// flagError turns flag parsing failures into usage errors.
func flagError(cmd *cobra.Command, err error) error {
	return model.WrapCLIError(model.ExitUsageError,
		fmt.Sprintf("invalid arguments for %s (see %s --help)", cmd.CommandPath(), cmd.CommandPath()), err)
}

type commandKey struct{}

// Command returns the command a tool was started from, or nil when ctx did
// not come from a command built by NewCommand.
func Command(ctx context.Context) *cobra.Command {
	cmd, _ := ctx.Value(commandKey{}).(*cobra.Command)
	return cmd
}

// Stdout returns where a tool should write its results: the command's
// output stream, or os.Stdout outside of a command.
func Stdout(ctx context.Context) io.Writer {
	if cmd := Command(ctx); cmd != nil {
		return cmd.OutOrStdout()
	}
	return os.Stdout
}

// JSONOutput reports whether --json was given to the command or one of its
// parents.
func JSONOutput(ctx context.Context) bool {
	cmd := Command(ctx)
	if cmd == nil {
		return false
	}
	return jsonFlag(cmd)
}

func jsonFlag(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if f := c.Flags().Lookup("json"); f != nil && f.Value.String() == "true" {
			return true
		}
		if f := c.PersistentFlags().Lookup("json"); f != nil && f.Value.String() == "true" {
			return true
		}
	}
	return false
}
