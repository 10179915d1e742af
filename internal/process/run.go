package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/shinji-kodama/toolbelt/internal/model"
)

// Result is what a finished command produced.
type Result struct {
	// Command is the command string as passed to the shell.
	Command string `json:"command" yaml:"command"`

	// ExitCode is the exit status, or -1 if the process was killed by a
	// signal.
	ExitCode int `json:"exitCode" yaml:"exitCode"`

	// Stdout and Stderr hold the decoded output streams.
	Stdout string `json:"stdout" yaml:"stdout"`
	Stderr string `json:"stderr" yaml:"stderr"`
}

// Run executes command through the shell, waits for it and returns its
// exit code and decoded output.
//
// When the exit code is not acceptable the returned error is a
// *model.CommandError and the Result is still populated. When the timeout
// elapses the process is killed and the error matches model.ErrTimeout and
// context.DeadlineExceeded.
func Run(ctx context.Context, command string, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)

	ctx, cancel := cfg.withTimeout(ctx)
	defer cancel()

	cmd := cfg.command(ctx, command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("Running command", "command", command, "timeout", cfg.timeout)
	err := cmd.Run()

	return cfg.finish(ctx, command, err, stdout.Bytes(), stderr.Bytes())
}

// finish turns the error returned by cmd.Run or cmd.Wait into a Result and
// the error the caller sees.
func (c *config) finish(ctx context.Context, command string, runErr error, stdout, stderr []byte) (*Result, error) {
	result := &Result{
		Command: command,
		Stdout:  Decode(stdout),
		Stderr:  Decode(stderr),
	}

	if runErr != nil && ctx.Err() != nil {
		result.ExitCode = -1
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, model.Wrap(model.ErrTimeout, context.DeadlineExceeded,
				"command %q did not finish within %s", command, c.timeout)
		}
		return result, fmt.Errorf("command %q was cancelled: %w", command, ctx.Err())
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		result.ExitCode = 0
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("failed to run command %q: %w", command, runErr)
	}

	log.Debug("Command finished", "command", command, "exitCode", result.ExitCode)

	if !c.accepts(result.ExitCode) {
		return result, &model.CommandError{
			Command:  command,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
		}
	}
	return result, nil
}
