package runner

import (
	"os"
	"time"
)

// Result is the immutable outcome of one tool invocation that ran to
// completion, whatever its exit code.
type Result struct {
	runID       string
	exitCode    int
	commandLine string
	output      string
	truncated   bool
	duration    time.Duration
	state       *os.ProcessState
}

// NewResult returns a Result that did not come from a real process, for
// callers that replay or fake invocations.
func NewResult(runID string, exitCode int, commandLine, output string) *Result {
	return &Result{
		runID:       runID,
		exitCode:    exitCode,
		commandLine: commandLine,
		output:      output,
	}
}

// RunID uniquely identifies the invocation.
func (r *Result) RunID() string { return r.runID }

// ExitCode is the process exit code.
func (r *Result) ExitCode() int { return r.exitCode }

// HasErrors reports whether the tool exited with a non-zero code.
func (r *Result) HasErrors() bool { return r.exitCode != 0 }

// CommandLine is the full invocation, tool name included.
func (r *Result) CommandLine() string { return r.commandLine }

// Output is the combined stdout and stderr text.
func (r *Result) Output() string { return r.output }

// Truncated reports whether output beyond the runner's cap was dropped.
func (r *Result) Truncated() bool { return r.truncated }

// Duration is the wall time between spawn and exit.
func (r *Result) Duration() time.Duration { return r.duration }

// State exposes the process metadata. It is nil for results built with
// NewResult.
func (r *Result) State() *os.ProcessState { return r.state }
