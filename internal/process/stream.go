package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Stream executes command like Run but relays every output line to the
// writers set by WithStdout and WithStderr (os.Stdout and os.Stderr by
// default) while the command is running. Both streams are read
// concurrently so a chatty command cannot block on a full pipe. The full
// output is also captured in the Result.
func Stream(ctx context.Context, command string, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)

	ctx, cancel := cfg.withTimeout(ctx)
	defer cancel()

	cmd := cfg.command(ctx, command)

	// io.Pipe writers are not *os.File, so exec copies the output in its own
	// goroutines and WaitDelay can close them after a kill.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	log.Debug("Streaming command", "command", command, "timeout", cfg.timeout)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to run command %q: %w", command, err)
	}

	var mu sync.Mutex
	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	// A relay that stops reading leaves the command blocked on a full
	// pipe, so its failure kills the command.
	relayOrKill := func(r *io.PipeReader, out io.Writer, captured *bytes.Buffer) func() error {
		return func() error {
			err := relay(r, &lockedWriter{mu: &mu, w: out}, captured)
			if err != nil {
				cancel()
			}
			return err
		}
	}
	g.Go(relayOrKill(stdoutR, cfg.stdout, &stdout))
	g.Go(relayOrKill(stderrR, cfg.stderr, &stderr))

	waitErr := cmd.Wait()
	_ = stdoutW.Close()
	_ = stderrW.Close()

	readErr := g.Wait()

	result, err := cfg.finish(ctx, command, waitErr, stdout.Bytes(), stderr.Bytes())
	if readErr != nil {
		return result, fmt.Errorf("failed to relay output of command %q: %w", command, readErr)
	}
	return result, err
}

// relay copies r to out line by line, keeping the raw bytes in captured.
// The reader is closed on return so the writing side never blocks on a
// relay that gave up.
func relay(r *io.PipeReader, out io.Writer, captured *bytes.Buffer) (err error) {
	defer func() { _ = r.CloseWithError(err) }()

	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			captured.Write(line)
			if _, err := io.WriteString(out, Decode(line)); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}

// lockedWriter serializes writes from the two relays, which may share one
// destination.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
