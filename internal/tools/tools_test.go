package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/toolbelt/internal/cli"
	"github.com/shinji-kodama/toolbelt/internal/model"
	"github.com/shinji-kodama/toolbelt/internal/process"
)

// skipOnWindows skips tests that rely on a POSIX shell.
func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// runTool executes tool with args and returns what it wrote.
func runTool(t *testing.T, tool cli.Tool, args ...string) (string, string, error) {
	t.Helper()

	previous := log.Default()
	t.Cleanup(func() { log.SetDefault(previous) })

	var stdout, stderr bytes.Buffer
	err := cli.Run(context.Background(), tool, args, cli.WithOutput(&stdout, &stderr))
	return stdout.String(), stderr.String(), err
}

// runJSON executes tool as a subcommand of a root command given --json.
func runJSON(t *testing.T, tool cli.Tool, args ...string) ([]byte, error) {
	t.Helper()

	previous := log.Default()
	t.Cleanup(func() { log.SetDefault(previous) })

	root := cli.NewRootCommand("toolbelt", "Test binary.", tool)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--json", cli.Name(tool)}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.Bytes(), err
}

func TestAll(t *testing.T) {
	names := make([]string, 0)
	for _, tool := range All() {
		names = append(names, cli.Name(tool))
	}
	assert.Equal(t, []string{"run", "scratch", "inspect", "backup", "which"}, names)
}

func TestRunTool(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name     string
		args     []string
		stdout   string
		wantCode model.ExitCode
	}{
		{
			name:   "success",
			args:   []string{"--", "echo", "hi"},
			stdout: "hi\n",
		},
		{
			name:     "unacceptable exit code",
			args:     []string{"--", "echo out; exit 3"},
			stdout:   "out\n",
			wantCode: model.ExitCommandFailed,
		},
		{
			name: "accepted exit code",
			args: []string{"--accept", "0,3", "--", "exit 3"},
		},
		{
			name: "any exit code",
			args: []string{"--any-exit-code", "--", "exit 42"},
		},
		{
			name:     "accept conflicts with any exit code",
			args:     []string{"--accept", "1", "--any-exit-code", "--", "true"},
			wantCode: model.ExitGeneralError,
		},
		{
			name:     "exit code out of range",
			args:     []string{"--accept", "256", "--", "true"},
			wantCode: model.ExitUsageError,
		},
		{
			name:     "negative timeout",
			args:     []string{"--timeout", "-1", "--", "true"},
			wantCode: model.ExitUsageError,
		},
		{
			name:     "timeout",
			args:     []string{"--timeout", "0.2", "--", "sleep 5"},
			wantCode: model.ExitTimeout,
		},
		{
			name:     "missing command",
			args:     []string{},
			wantCode: model.ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runTool(t, &RunTool{}, tt.args...)
			assert.Equal(t, tt.wantCode, model.ExitCodeFor(err), "error: %v", err)
			if tt.stdout != "" {
				assert.Equal(t, tt.stdout, stdout)
			}
		})
	}
}

func TestRunTool_Dir(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	stdout, _, err := runTool(t, &RunTool{}, "--dir", dir, "--", "pwd")
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(stdout))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, _, err = runTool(t, &RunTool{}, "--dir", filepath.Join(dir, "missing"), "--", "pwd")
	assert.Equal(t, model.ExitUsageError, model.ExitCodeFor(err))
}

func TestRunTool_Stream(t *testing.T) {
	skipOnWindows(t)

	stdout, stderr, err := runTool(t, &RunTool{}, "--stream", "--", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", stdout)
	assert.Contains(t, stderr, "err\n")
}

func TestRunTool_JSON(t *testing.T) {
	skipOnWindows(t)

	out, err := runJSON(t, &RunTool{}, "--any-exit-code", "--", "echo hi; echo oops >&2; exit 2")
	require.NoError(t, err)

	var result process.Result
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, process.Result{
		Command:  "echo hi; echo oops >&2; exit 2",
		ExitCode: 2,
		Stdout:   "hi\n",
		Stderr:   "oops\n",
	}, result)
}

func TestRunTool_JSONFailure(t *testing.T) {
	skipOnWindows(t)

	out, err := runJSON(t, &RunTool{}, "--", "exit 1")
	require.ErrorIs(t, err, model.ErrCommandFailed)

	// The result is reported even though the command failed.
	var result process.Result
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, 1, result.ExitCode)
}

func TestScratchTool(t *testing.T) {
	skipOnWindows(t)

	stdout, _, err := runTool(t, &ScratchTool{}, "--", `pwd; echo "$SCRATCH_DIR"`)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.NotEmpty(t, lines[1])
	assert.NoDirExists(t, lines[1], "scratch directory must be removed")
}

func TestScratchTool_File(t *testing.T) {
	skipOnWindows(t)

	stdout, _, err := runTool(t, &ScratchTool{}, "--file=.csv", "--",
		`test ! -e "$SCRATCH_FILE" && echo a,b > "$SCRATCH_FILE" && echo "$SCRATCH_FILE"`)
	require.NoError(t, err)

	path := strings.TrimSpace(stdout)
	assert.True(t, strings.HasSuffix(path, ".csv"), path)
	assert.NoFileExists(t, path, "scratch file must be removed")
}

func TestScratchTool_FailureCleansUp(t *testing.T) {
	skipOnWindows(t)

	out, err := runJSON(t, &ScratchTool{}, "--", `echo "$SCRATCH_DIR"; exit 4`)
	require.ErrorIs(t, err, model.ErrCommandFailed)

	var result process.Result
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, 4, result.ExitCode)
	assert.NoDirExists(t, strings.TrimSpace(result.Stdout))
}

func TestBackupTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))
	missing := filepath.Join(dir, "missing.txt")

	stdout, _, err := runTool(t, &BackupTool{}, path, missing)
	require.NoError(t, err)

	backup := filepath.Join(dir, "results_000.csv")
	assert.Equal(t, path+" -> "+backup+"\n"+missing+" (not present, skipped)\n", stdout)
	assert.NoFileExists(t, path)
	assert.FileExists(t, backup)

	// A second backup takes the next free number.
	require.NoError(t, os.WriteFile(path, []byte("c,d\n"), 0o644))
	out, err := runJSON(t, &BackupTool{}, path)
	require.NoError(t, err)

	var got struct {
		Backups []backupJSON `json:"backups"`
	}
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, []backupJSON{{Path: path, Backup: filepath.Join(dir, "results_001.csv"), Moved: true}}, got.Backups)
}

func TestWhichTool(t *testing.T) {
	skipOnWindows(t)

	stdout, _, err := runTool(t, &WhichTool{}, "sh")
	require.NoError(t, err)
	fields := strings.Fields(stdout)
	require.Len(t, fields, 2)
	assert.Equal(t, "sh", fields[0])
	assert.True(t, filepath.IsAbs(fields[1]))

	_, _, err = runTool(t, &WhichTool{}, "sh", "toolbelt-no-such-executable")
	require.ErrorIs(t, err, model.ErrExecutableNotFound)
	assert.Equal(t, model.ExitNotFound, model.ExitCodeFor(err))

	_, _, err = runTool(t, &WhichTool{}, "--platforms", "plan9", "sh")
	require.ErrorIs(t, err, model.ErrUnsupportedPlatform)
}

func TestWhichTool_JSON(t *testing.T) {
	skipOnWindows(t)

	out, err := runJSON(t, &WhichTool{}, "toolbelt-no-such-executable")
	require.Error(t, err)

	var got struct {
		Executables []whichJSON `json:"executables"`
	}
	require.NoError(t, json.Unmarshal(out, &got))
	require.Len(t, got.Executables, 1)
	assert.Equal(t, "toolbelt-no-such-executable", got.Executables[0].Name)
	assert.Empty(t, got.Executables[0].Path)
	assert.Contains(t, got.Executables[0].Error, "not found")
}

// inspectFixture creates a directory with two files and returns the
// directory and one of the files.
func inspectFixture(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	file := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n1,2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	return dir, file
}

func TestInspectTool(t *testing.T) {
	dir, file := inspectFixture(t)

	stdout, _, err := runTool(t, &InspectTool{}, file, dir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"file", "8", "-", file}, strings.Fields(lines[0]))
	fields := strings.Fields(lines[1])
	assert.Equal(t, "directory", fields[0])
	assert.Equal(t, "2", fields[2])
	assert.Equal(t, dir, fields[3])
}

func TestInspectTool_Errors(t *testing.T) {
	dir, file := inspectFixture(t)

	tests := []struct {
		name     string
		args     []string
		wantErr  error
		wantCode model.ExitCode
	}{
		{
			name:     "missing path",
			args:     []string{filepath.Join(dir, "missing")},
			wantErr:  model.ErrFileNotFound,
			wantCode: model.ExitNotFound,
		},
		{
			name:     "directory with files-only",
			args:     []string{"--files-only", dir},
			wantErr:  model.ErrNotAFile,
			wantCode: model.ExitWrongType,
		},
		{
			name:     "file with dirs-only",
			args:     []string{"--dirs-only", file},
			wantErr:  model.ErrIsAFile,
			wantCode: model.ExitWrongType,
		},
		{
			name:     "no paths",
			args:     []string{},
			wantErr:  model.ErrArgumentType,
			wantCode: model.ExitUsageError,
		},
		{
			name:     "unknown format",
			args:     []string{"--format", "xml", file},
			wantErr:  model.ErrArgumentType,
			wantCode: model.ExitUsageError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runTool(t, &InspectTool{}, tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, model.ExitCodeFor(err))
		})
	}
}

func TestInspectTool_Formats(t *testing.T) {
	_, file := inspectFixture(t)

	t.Run("json", func(t *testing.T) {
		stdout, _, err := runTool(t, &InspectTool{}, "--format", "JSON", file)
		require.NoError(t, err)

		var got struct {
			Paths []pathReport `json:"paths"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &got))
		assert.Equal(t, []pathReport{{Path: file, Kind: "file", Size: 8}}, got.Paths)
	})

	t.Run("yaml", func(t *testing.T) {
		stdout, _, err := runTool(t, &InspectTool{}, "--format", "yaml", file)
		require.NoError(t, err)

		var got struct {
			Paths []pathReport `yaml:"paths"`
		}
		require.NoError(t, yaml.Unmarshal([]byte(stdout), &got))
		assert.Equal(t, []pathReport{{Path: file, Kind: "file", Size: 8}}, got.Paths)
	})
}

func TestInspectTool_OutputDir(t *testing.T) {
	_, file := inspectFixture(t)
	outDir := filepath.Join(t.TempDir(), "reports")

	stdout, _, err := runTool(t, &InspectTool{}, "--format", "yaml", "--output-dir", outDir, file)
	require.NoError(t, err)

	report := filepath.Join(outDir, "report.yaml")
	assert.Equal(t, report+"\n", stdout)
	assert.FileExists(t, report)

	// An existing report is kept under a numbered name.
	_, _, err = runTool(t, &InspectTool{}, "--format", "yaml", "--output-dir", outDir, file)
	require.NoError(t, err)
	assert.FileExists(t, report)
	assert.FileExists(t, filepath.Join(outDir, "report_000.yaml"))
}

func TestInspectTool_ConfigFile(t *testing.T) {
	_, file := inspectFixture(t)
	outDir := t.TempDir()

	config := filepath.Join(t.TempDir(), "inspect.yaml")
	require.NoError(t, os.WriteFile(config, []byte(
		"format: json\n"+
			"output_dir: "+outDir+"\n"), 0o644))

	_, _, err := runTool(t, &InspectTool{}, "--config", config, file)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "report.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind": "file"`)
}

func TestInspectTool_ConfigFilePrecedence(t *testing.T) {
	_, file := inspectFixture(t)

	config := filepath.Join(t.TempDir(), "inspect.json")
	require.NoError(t, os.WriteFile(config, []byte(`{"format": "json"} // reports as JSON`), 0o644))

	stdout, _, err := runTool(t, &InspectTool{}, "--config", config, file)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)), stdout)

	// The command line wins over the file.
	stdout, _, err = runTool(t, &InspectTool{}, "--config", config, "--format", "text", file)
	require.NoError(t, err)
	assert.Equal(t, []string{"file", "8", "-", file}, strings.Fields(stdout))
}

func TestInspectTool_Environment(t *testing.T) {
	_, file := inspectFixture(t)
	t.Setenv("INSPECT_FORMAT", "yaml")

	// Environment variables only apply to commands with a config file
	// option, which inspect always has.
	stdout, _, err := runTool(t, &InspectTool{}, file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "paths:\n"), stdout)
}
