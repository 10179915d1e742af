package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restoreDefault puts the package default logger back after a test
// replaced it through Setup.
func restoreDefault(t *testing.T) {
	t.Helper()

	previous := log.Default()
	t.Cleanup(func() { log.SetDefault(previous) })
}

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		want      log.Level
	}{
		{-1, log.ErrorLevel},
		{0, log.ErrorLevel},
		{1, log.WarnLevel},
		{2, log.InfoLevel},
		{3, log.DebugLevel},
		{7, log.DebugLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForVerbosity(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestSetup_FiltersByLevel(t *testing.T) {
	restoreDefault(t)

	var buf bytes.Buffer
	logger, closer, err := Setup(Options{Verbosity: 1, Output: &buf})
	require.NoError(t, err)
	defer func() { _ = closer.Close() }()

	assert.Same(t, logger, log.Default())

	log.Info("hidden at warn level")
	log.Warn("shown at warn level")

	assert.NotContains(t, buf.String(), "hidden at warn level")
	assert.Contains(t, buf.String(), "shown at warn level")

	SetVerbosity(3)
	log.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestSetup_LogFile(t *testing.T) {
	restoreDefault(t)

	logFile := filepath.Join(t.TempDir(), "tool.log")

	var buf bytes.Buffer
	_, closer, err := Setup(Options{Verbosity: 2, Output: &buf, LogFile: logFile})
	require.NoError(t, err)

	LogCommandLine([]string{"tool", "-v", "input.txt"})
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Run with command line: tool -v input.txt")
	assert.Contains(t, buf.String(), "Run with command line: tool -v input.txt")
}

func TestSetup_BadLogFile(t *testing.T) {
	restoreDefault(t)

	_, _, err := Setup(Options{LogFile: filepath.Join(t.TempDir(), "missing", "tool.log")})
	assert.Error(t, err)
}
