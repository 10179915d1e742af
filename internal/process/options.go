package process

import (
	"context"
	"io"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"time"
)

// DefaultTimeout bounds how long Run and Stream wait for a command.
const DefaultTimeout = 600 * time.Second

// waitDelay bounds how long Wait keeps the output pipes open after the
// command was killed, in case a grandchild process still holds them.
const waitDelay = 2 * time.Second

// Option configures Run and Stream.
type Option func(*config)

type config struct {
	timeout     time.Duration
	acceptable  []int
	anyExitCode bool
	dir         string
	env         []string
	shell       []string
	stdout      io.Writer
	stderr      io.Writer
}

// WithTimeout sets the maximum run time. Zero disables the timeout; the
// caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithAcceptableExitCodes replaces the set of exit codes treated as
// success.
func WithAcceptableExitCodes(codes ...int) Option {
	return func(c *config) { c.acceptable = codes }
}

// WithAnyExitCode disables exit code checking; the exit code is still
// reported in the Result.
func WithAnyExitCode() Option {
	return func(c *config) { c.anyExitCode = true }
}

// WithDir sets the working directory of the command.
func WithDir(dir string) Option {
	return func(c *config) { c.dir = dir }
}

// WithEnv adds KEY=VALUE entries on top of the current environment.
func WithEnv(env ...string) Option {
	return func(c *config) { c.env = append(c.env, env...) }
}

// WithShell replaces the shell invocation. The command string is appended
// as the final argument, e.g. WithShell("/bin/bash", "-c"). Without
// arguments the platform shell is kept.
func WithShell(argv ...string) Option {
	return func(c *config) {
		if len(argv) > 0 {
			c.shell = slices.Clone(argv)
		}
	}
}

// WithStdout sets where Stream relays standard output lines.
func WithStdout(w io.Writer) Option {
	return func(c *config) { c.stdout = w }
}

// WithStderr sets where Stream relays standard error lines.
func WithStderr(w io.Writer) Option {
	return func(c *config) { c.stderr = w }
}

func newConfig(opts []Option) *config {
	c := &config{
		timeout:    DefaultTimeout,
		acceptable: []int{0},
		shell:      defaultShell(),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultShell mirrors what a user's terminal would do with a one-line
// command: sh on POSIX systems and cmd.exe on Windows.
func defaultShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"/bin/sh", "-c"}
}

func (c *config) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *config) command(ctx context.Context, command string) *exec.Cmd {
	args := append(slices.Clone(c.shell[1:]), command)

	// #nosec G204 — running caller-supplied shell commands is the purpose of this package
	cmd := exec.CommandContext(ctx, c.shell[0], args...)
	cmd.Dir = c.dir
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}
	cmd.WaitDelay = waitDelay
	return cmd
}

func (c *config) accepts(code int) bool {
	return c.anyExitCode || slices.Contains(c.acceptable, code)
}
