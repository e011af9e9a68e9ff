// Package runner executes dotnet invocations and captures their combined
// output, with timeouts and output size limits.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deixis/dotnetrun/internal/command"
	"github.com/deixis/dotnetrun/internal/logging"
	"github.com/google/uuid"
)

// DefaultTool is the executable invoked when Runner.Tool is empty.
const DefaultTool = "dotnet"

// waitDelay bounds how long Run waits for output pipes after the tool exits
// or is killed, so that grandchildren holding the pipes cannot block it.
const waitDelay = 5 * time.Second

// ErrCanceled is returned when the context ends or the timeout expires
// before the tool exits. The tool is killed and no Result is produced.
var ErrCanceled = errors.New("runner: invocation canceled")

// Runner executes tool invocations.
// A Runner holds no per-run state and is safe for concurrent use.
type Runner struct {
	Tool      string        // executable name (resolved via PATH) or path
	Timeout   time.Duration // <= 0 disables the timeout
	MaxOutput int           // bytes of combined output kept; <= 0 keeps everything
	Logger    *log.Logger   // nil discards
}

// Run executes d and waits for the tool to exit.
//
// A non-zero exit code is not an error: it is reported by the returned
// Result. Run returns an error only when the tool could not be started
// (not found, permission denied, missing working directory), when the
// command line cannot be tokenized, or when ctx ends first (ErrCanceled).
func (r *Runner) Run(ctx context.Context, d command.Descriptor) (*Result, error) {
	if d.IsZero() {
		return nil, command.ErrEmptyCommand
	}

	tool := r.tool()
	line := d.CommandLine()
	display := tool + " " + line

	args, err := command.Split(line)
	if err != nil {
		return nil, fmt.Errorf("tokenizing %q: %w", display, err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	runID := uuid.New().String()
	logger := r.logger().With("run_id", runID, "command", d.Command())

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = d.WorkingDirectory()
	cmd.WaitDelay = waitDelay

	// Sharing one writer makes exec multiplex stdout and stderr onto a
	// single pipe, so the buffer keeps the order the tool wrote in.
	var buf bytes.Buffer
	out := &limitWriter{buf: &buf, limit: r.MaxOutput}
	cmd.Stdout = out
	cmd.Stderr = out

	if logger.GetLevel() <= log.DebugLevel {
		argv, _ := command.ShellLine(append([]string{tool}, args...)...)
		logger.Debug("starting", "cmdline", display, "argv", argv, "dir", cmd.Dir)
	}
	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Warn("canceled", "elapsed", elapsed, "err", ctxErr)
			return nil, fmt.Errorf("%w: %s: %w", ErrCanceled, display, ctxErr)
		}
		var exitErr *exec.ExitError
		switch {
		case errors.As(runErr, &exitErr):
			exitCode = exitErr.ExitCode()
		case errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil:
			exitCode = cmd.ProcessState.ExitCode()
		default:
			// Binary not found or other spawn error.
			logger.Error("spawn failed", "tool", tool, "err", runErr)
			return nil, fmt.Errorf("executing %s: %w", tool, runErr)
		}
	}

	if exitCode != 0 {
		logger.Warn("finished with errors", "exit_code", exitCode, "elapsed", elapsed)
	} else {
		logger.Info("finished", "exit_code", exitCode, "elapsed", elapsed)
	}

	return &Result{
		runID:       runID,
		exitCode:    exitCode,
		commandLine: display,
		output:      buf.String(),
		truncated:   out.dropped,
		duration:    elapsed,
		state:       cmd.ProcessState,
	}, nil
}

func (r *Runner) tool() string {
	if r.Tool == "" {
		return DefaultTool
	}
	return r.Tool
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

// limitWriter writes up to limit bytes to buf, then silently discards the
// rest. A limit <= 0 disables the cap.
type limitWriter struct {
	buf     *bytes.Buffer
	limit   int
	dropped bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.limit <= 0 {
		return w.buf.Write(p)
	}
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			w.dropped = true
		}
		return len(p), nil
	}
	if len(p) > remaining {
		// Report all bytes as consumed to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		w.dropped = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
