package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/toolbelt/internal/cliargs"
	"github.com/shinji-kodama/toolbelt/internal/model"
	"github.com/shinji-kodama/toolbelt/internal/validation"
)

// restoreLogger puts the default logger back after a command replaced it.
func restoreLogger(t *testing.T) {
	t.Helper()

	previous := log.Default()
	t.Cleanup(func() { log.SetDefault(previous) })
}

// greetTool records what it was executed with.
type greetTool struct {
	times  int
	format string
	ran    bool
	args   []string
	level  log.Level
}

func (g *greetTool) Doc() string {
	return `
		Greet someone a number of times. The greeting goes to stdout.

		Useful for exercising the command-line plumbing.
	`
}

func (g *greetTool) RegisterFlags(cmd *cobra.Command) {
	g.times = 1
	cmd.Flags().VarP(cliargs.IntValue(&g.times, validation.Min(1), validation.Max(5)), "times", "n", "repetitions")
	g.format = "text"
	cmd.Flags().Var(cliargs.StrValue(&g.format, []string{"text", "json"}), "format", "output format")
}

func (g *greetTool) Execute(ctx context.Context, args []string) error {
	g.ran = true
	g.args = args
	g.level = log.GetLevel()
	for range g.times {
		_, _ = fmt.Fprintln(Stdout(ctx), "hello")
	}
	return nil
}

type configurableTool struct {
	greetTool
}

func (c *configurableTool) ConfigFile() bool { return true }

type unfinishedCommand struct {
	Base
}

func (unfinishedCommand) Doc() string { return "Not done yet." }

type namedTool struct{ Base }

func (namedTool) Doc() string  { return "Has a custom name." }
func (namedTool) Name() string { return "custom-name" }

func TestName(t *testing.T) {
	assert.Equal(t, "greet", Name(&greetTool{}))
	assert.Equal(t, "configurable", Name(&configurableTool{}))
	assert.Equal(t, "unfinished", Name(unfinishedCommand{}))
	assert.Equal(t, "custom-name", Name(namedTool{}))
}

func TestDescriptionAndHelp(t *testing.T) {
	tool := &greetTool{}

	assert.Equal(t,
		"Greet someone a number of times. The greeting goes to stdout.\n\nUseful for exercising the command-line plumbing.",
		Description(tool))
	assert.Equal(t, "greet someone a number of times", Help(tool))

	assert.Equal(t, "not done yet", Help(unfinishedCommand{}))
	assert.Equal(t, "first line", Help(docTool("First line.\n    second line")))
}

func TestCleanDoc(t *testing.T) {
	doc := "Summary line.\n\n      Indented block:\n        nested\n      back\n\n"
	assert.Equal(t, "Summary line.\n\nIndented block:\n  nested\nback", cleanDoc(doc))
	assert.Empty(t, cleanDoc("\n\n   \n"))
}

func TestRun(t *testing.T) {
	restoreLogger(t)

	var stdout, stderr bytes.Buffer
	tool := &greetTool{}
	err := Run(context.Background(), tool, []string{"-n", "3", "--format", "JSON", "world"},
		WithOutput(&stdout, &stderr))
	require.NoError(t, err)

	assert.True(t, tool.ran)
	assert.Equal(t, 3, tool.times)
	assert.Equal(t, "json", tool.format)
	assert.Equal(t, []string{"world"}, tool.args)
	assert.Equal(t, "hello\nhello\nhello\n", stdout.String())
	assert.Equal(t, log.WarnLevel, tool.level, "default verbosity logs warnings")
}

func TestRun_Verbosity(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want log.Level
	}{
		{name: "default", args: nil, want: log.WarnLevel},
		{name: "one -v", args: []string{"-v"}, want: log.InfoLevel},
		{name: "-vv", args: []string{"-vv"}, want: log.DebugLevel},
		{name: "repeated", args: []string{"-v", "--verbose", "-v"}, want: log.DebugLevel},
		{name: "quiet", args: []string{"-q"}, want: log.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreLogger(t)

			tool := &greetTool{}
			err := Run(context.Background(), tool, tt.args, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tool.level)
		})
	}
}

func TestRun_VerboseAndQuietConflict(t *testing.T) {
	restoreLogger(t)

	tool := &greetTool{}
	err := Run(context.Background(), tool, []string{"-v", "-q"}, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
	require.Error(t, err)
	assert.False(t, tool.ran)
}

func TestRun_InvalidFlag(t *testing.T) {
	restoreLogger(t)

	tool := &greetTool{}
	err := Run(context.Background(), tool, []string{"--times", "9"}, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
	require.Error(t, err)

	assert.ErrorIs(t, err, model.ErrArgumentType)
	assert.ErrorIs(t, err, model.ErrValue)
	assert.Equal(t, model.ExitUsageError, model.ExitCodeFor(err))
	assert.False(t, tool.ran)
}

func TestRun_LogFile(t *testing.T) {
	restoreLogger(t)

	logFile := filepath.Join(t.TempDir(), "greet.log")
	var stderr bytes.Buffer
	err := Run(context.Background(), &greetTool{}, []string{"-v", "--log-file=" + logFile},
		WithOutput(&bytes.Buffer{}, &stderr))
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Run with command line")
	assert.Contains(t, stderr.String(), "Run with command line")
}

func TestRun_LogsItsOwnCommandLine(t *testing.T) {
	restoreLogger(t)

	var stderr bytes.Buffer
	err := Run(context.Background(), &greetTool{}, []string{"-v", "--times=2", "world"},
		WithOutput(&bytes.Buffer{}, &stderr))
	require.NoError(t, err)

	logged := stderr.String()
	assert.Contains(t, logged, "Run with command line: greet ")
	assert.Contains(t, logged, "--times=2")
	assert.Contains(t, logged, "world")
	assert.NotContains(t, logged, filepath.Base(os.Args[0]))
}

func TestNewCommand_LogFileDefault(t *testing.T) {
	cmd := NewCommand(&greetTool{})
	f := cmd.Flags().Lookup("log-file")
	require.NotNil(t, f)

	assert.Equal(t, "l", f.Shorthand)
	assert.True(t, strings.HasPrefix(f.NoOptDefVal, "greet."))
	assert.True(t, strings.HasSuffix(f.NoOptDefVal, ".log"))
	assert.Len(t, f.NoOptDefVal, len("greet.2006-01-02_15-04-05.log"))
}

func TestNewCommand_Metadata(t *testing.T) {
	cmd := NewCommand(&greetTool{})
	assert.Equal(t, "greet", cmd.Name())
	assert.Equal(t, "greet someone a number of times", cmd.Short)
	assert.Contains(t, cmd.Long, "Useful for exercising")
	assert.Nil(t, cmd.Flags().Lookup("config"), "only configurable tools get --config")

	cmd = NewCommand(&greetTool{}, WithConfigFile())
	assert.NotNil(t, cmd.Flags().Lookup("config"))
}

func TestBase_NotImplemented(t *testing.T) {
	restoreLogger(t)

	err := Run(context.Background(), unfinishedCommand{}, nil, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
	assert.ErrorIs(t, err, model.ErrNotImplemented)
}

func TestConfigurableTool(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "greet.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
environment:
  TOOLBELT_CLI_TEST_HOME: $HOME/greetings
times: 4
format: JSON
`), 0o644))
	t.Setenv("HOME", dir)
	t.Setenv("TOOLBELT_CLI_TEST_HOME", "")

	t.Run("config file", func(t *testing.T) {
		restoreLogger(t)

		tool := &configurableTool{}
		var stdout bytes.Buffer
		err := Run(context.Background(), tool, []string{"--config", cfg}, WithOutput(&stdout, &bytes.Buffer{}))
		require.NoError(t, err)

		assert.Equal(t, 4, tool.times)
		assert.Equal(t, "json", tool.format)
		assert.Equal(t, 4, strings.Count(stdout.String(), "hello"))
		assert.Equal(t, filepath.Join(dir, "greetings"), os.Getenv("TOOLBELT_CLI_TEST_HOME"))
	})

	t.Run("command line wins", func(t *testing.T) {
		restoreLogger(t)

		tool := &configurableTool{}
		err := Run(context.Background(), tool, []string{"-c", cfg, "-n", "2"}, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
		require.NoError(t, err)
		assert.Equal(t, 2, tool.times)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		restoreLogger(t)
		t.Setenv("CONFIGURABLE_TIMES", "5")

		tool := &configurableTool{}
		err := Run(context.Background(), tool, []string{"-c", cfg}, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
		require.NoError(t, err)
		assert.Equal(t, 5, tool.times)
	})

	t.Run("invalid value in file", func(t *testing.T) {
		restoreLogger(t)

		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"times": 99}`), 0o644))

		tool := &configurableTool{}
		err := Run(context.Background(), tool, []string{"-c", bad}, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
		assert.ErrorIs(t, err, model.ErrValue)
		assert.False(t, tool.ran)
	})

	t.Run("unknown key is logged like everything else", func(t *testing.T) {
		restoreLogger(t)

		unknown := filepath.Join(dir, "unknown.json")
		require.NoError(t, os.WriteFile(unknown, []byte(`{"colour": "blue"}`), 0o644))
		logFile := filepath.Join(dir, "unknown.log")

		var stderr bytes.Buffer
		err := Run(context.Background(), &configurableTool{}, []string{"-c", unknown, "--log-file=" + logFile},
			WithOutput(&bytes.Buffer{}, &stderr))
		require.NoError(t, err)

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Ignoring unknown configuration key")
		assert.Contains(t, stderr.String(), "Ignoring unknown configuration key")
	})

	t.Run("quiet from file", func(t *testing.T) {
		restoreLogger(t)

		quiet := filepath.Join(dir, "quiet.yaml")
		require.NoError(t, os.WriteFile(quiet, []byte("quiet: true\ncolour: blue\n"), 0o644))

		tool := &configurableTool{}
		err := Run(context.Background(), tool, []string{"-c", quiet}, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
		require.NoError(t, err)
		assert.Equal(t, log.ErrorLevel, tool.level)
	})

	t.Run("missing file", func(t *testing.T) {
		restoreLogger(t)

		err := Run(context.Background(), &configurableTool{}, []string{"-c", filepath.Join(dir, "nope.toml")},
			WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
		assert.ErrorIs(t, err, model.ErrFileNotFound)
	})
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "INSPECT", EnvPrefix("inspect"))
	assert.Equal(t, "MY_TOOL", EnvPrefix("my-tool"))
}

func TestRootCommand(t *testing.T) {
	restoreLogger(t)

	greet := &greetTool{}
	root := NewRootCommand("toolbelt", "Assorted helpers. Each one is a subcommand.", greet, unfinishedCommand{})

	assert.Equal(t, "assorted helpers", root.Short)
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"greet", "unfinished"}, names)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"greet", "-n", "2"})

	assert.Equal(t, model.ExitSuccess, execute(root))
	assert.Equal(t, "hello\nhello\n", stdout.String())
}

func TestExecute_ErrorOutput(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		restoreLogger(t)

		root := NewRootCommand("toolbelt", "Helpers.", &greetTool{})
		var stderr bytes.Buffer
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&stderr)
		root.SetArgs([]string{"greet", "--times", "0"})

		assert.Equal(t, model.ExitUsageError, execute(root))
		assert.True(t, strings.HasPrefix(stderr.String(), "Error: invalid arguments for toolbelt greet"))
		assert.Contains(t, stderr.String(), "less than minimum value of 1")
	})

	t.Run("json", func(t *testing.T) {
		restoreLogger(t)

		root := NewRootCommand("toolbelt", "Helpers.", unfinishedCommand{})
		var stderr bytes.Buffer
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&stderr)
		root.SetArgs([]string{"--json", "unfinished"})

		assert.Equal(t, model.ExitGeneralError, execute(root))

		var payload struct {
			Error struct {
				Message string `json:"message"`
				Code    int    `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(stderr.Bytes(), &payload))
		assert.Equal(t, "Execute is not implemented", payload.Error.Message)
		assert.Equal(t, 1, payload.Error.Code)
	})
}

func TestJSONOutput(t *testing.T) {
	assert.False(t, JSONOutput(context.Background()))

	root := NewRootCommand("toolbelt", "Helpers.")
	sub := &cobra.Command{Use: "sub"}
	root.AddCommand(sub)
	require.NoError(t, root.PersistentFlags().Set("json", "true"))

	ctx := context.WithValue(context.Background(), commandKey{}, sub)
	assert.True(t, JSONOutput(ctx))
	assert.Same(t, sub, Command(ctx))
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, false, errors.New("plain failure"))
	assert.Equal(t, "Error: plain failure\n", buf.String())

	buf.Reset()
	printError(&buf, false, model.WrapCLIError(model.ExitNotFound, "input missing", errors.New("stat failed")))
	assert.Equal(t, "Error: input missing: stat failed\n", buf.String())
}
