// Package workflow runs dotnet operations (build, pack, publish, test,
// restore, clean) on top of the runner. It is consumed by both the MCP
// server and the CLI commands.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/deixis/dotnetrun/internal/command"
	"github.com/deixis/dotnetrun/internal/config"
	"github.com/deixis/dotnetrun/internal/report"
	"github.com/deixis/dotnetrun/internal/runner"
	"github.com/google/uuid"
)

// CommandRunner executes a frozen invocation.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, d command.Descriptor) (*runner.Result, error)
}

// ErrOutsideWorkspace is returned when a request names a directory or
// project that resolves outside Engine.Workspace.
var ErrOutsideWorkspace = errors.New("outside workspace")

// Operation is a dotnet command supported by the engine.
type Operation string

const (
	OpBuild   Operation = "build"
	OpPack    Operation = "pack"
	OpPublish Operation = "publish"
	OpTest    Operation = "test"
	OpRestore Operation = "restore"
	OpClean   Operation = "clean"
)

// Operations lists every supported operation.
var Operations = []Operation{OpBuild, OpPack, OpPublish, OpTest, OpRestore, OpClean}

// Valid reports whether o is a supported operation.
func (o Operation) Valid() bool {
	for _, op := range Operations {
		if o == op {
			return true
		}
	}
	return false
}

// Request describes one operation to run.
type Request struct {
	Operation     Operation
	Project       string             // project or solution file; empty lets dotnet pick
	Configuration string             // overrides the configured Configuration
	Properties    command.Properties // applied after the configured defaults
	Args          []string           // one token each, escaped and appended after the configured args
	Options       []command.Option   // applied last
	Dir           string             // working directory; defaults to Engine.Workspace
}

// OperationResult pairs the raw process outcome with its parsed report.
type OperationResult struct {
	RunResult *report.RunResult
	Result    *runner.Result
}

// Engine holds shared dependencies for all workflow operations.
type Engine struct {
	Config    *config.Config
	Runner    CommandRunner
	Workspace string // directory operations run in unless a request overrides it
}

// Descriptor assembles the invocation for req without running it.
//
// Properties are layered in this order, later layers replacing the values
// of earlier ones in place: configured global properties, Configuration,
// configured operation properties, request properties. Arguments are the
// project, configured operation args, request args, then options. Configured
// and request args are raw tokens and are escaped here.
func (e *Engine) Descriptor(req Request) (command.Descriptor, error) {
	if !req.Operation.Valid() {
		return command.Descriptor{}, fmt.Errorf("unknown operation: %s", req.Operation)
	}
	cfg := e.config()
	op := cfg.Operation(string(req.Operation))

	conf := req.Configuration
	if conf == "" {
		conf = cfg.Configuration
	}

	dir, err := e.dir(req)
	if err != nil {
		return command.Descriptor{}, err
	}
	if req.Project != "" {
		project := req.Project
		if !filepath.IsAbs(project) {
			project = filepath.Join(dir, project)
		}
		if err := e.within("project", req.Project, project); err != nil {
			return command.Descriptor{}, err
		}
	}

	b := command.New(string(req.Operation))
	if dir != "" {
		b.WorkingDirectory(dir)
	}
	b.Properties(cfg.Properties.Set()).
		Apply(command.WithConfiguration(conf), command.WithProject(req.Project)).
		Properties(op.Properties.Set()).
		Properties(req.Properties).
		Arg(escapeAll(op.Args)...).
		Arg(escapeAll(req.Args)...).
		Apply(req.Options...)
	return b.Build()
}

// Run executes req and parses its output. A failing build is reported
// through RunResult.HasErrors, not as an error.
func (e *Engine) Run(ctx context.Context, req Request) (*OperationResult, error) {
	d, err := e.Descriptor(req)
	if err != nil {
		return nil, err
	}

	res, err := e.Runner.Run(ctx, d)
	if err != nil {
		// A missing working directory also reports ErrNotExist.
		if errors.Is(err, exec.ErrNotFound) || (errors.Is(err, os.ErrNotExist) && dirExists(d.WorkingDirectory())) {
			return nil, NewErrToolUnavailable(e.config().ToolName(), err)
		}
		return nil, fmt.Errorf("executing dotnet %s: %w", req.Operation, err)
	}

	return &OperationResult{
		RunResult: NewRunResult(req, res),
		Result:    res,
	}, nil
}

func escapeAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = command.Escape(t)
	}
	return out
}

// Build runs dotnet build.
func (e *Engine) Build(ctx context.Context, req Request) (*OperationResult, error) {
	req.Operation = OpBuild
	return e.Run(ctx, req)
}

// Pack runs dotnet pack.
func (e *Engine) Pack(ctx context.Context, req Request) (*OperationResult, error) {
	req.Operation = OpPack
	return e.Run(ctx, req)
}

// Publish runs dotnet publish.
func (e *Engine) Publish(ctx context.Context, req Request) (*OperationResult, error) {
	req.Operation = OpPublish
	return e.Run(ctx, req)
}

// Test runs dotnet test.
func (e *Engine) Test(ctx context.Context, req Request) (*OperationResult, error) {
	req.Operation = OpTest
	return e.Run(ctx, req)
}

// Restore runs dotnet restore.
func (e *Engine) Restore(ctx context.Context, req Request) (*OperationResult, error) {
	req.Operation = OpRestore
	return e.Run(ctx, req)
}

// Clean runs dotnet clean.
func (e *Engine) Clean(ctx context.Context, req Request) (*OperationResult, error) {
	req.Operation = OpClean
	return e.Run(ctx, req)
}

// NewRunResult converts a process outcome into a stored report.
func NewRunResult(req Request, res *runner.Result) *report.RunResult {
	id := res.RunID()
	if id == "" {
		id = uuid.NewString()
	}
	rr := &report.RunResult{
		ID:          id,
		Kind:        report.Kind(req.Operation),
		Project:     req.Project,
		CommandLine: res.CommandLine(),
		ExitCode:    res.ExitCode(),
		Truncated:   res.Truncated(),
		Output:      res.Output(),
		Diagnostics: ParseDiagnostics(res.Output()),
	}
	if req.Operation == OpTest {
		rr.Tests, rr.TestFailures = ParseTestOutput(res.Output())
	}
	return rr
}

func (e *Engine) config() *config.Config {
	if e.Config == nil {
		return &config.Config{}
	}
	return e.Config
}

// dir resolves the request directory relative to the workspace and checks
// it stays within the workspace.
func (e *Engine) dir(req Request) (string, error) {
	if req.Dir == "" {
		return e.Workspace, nil
	}
	if e.Workspace == "" {
		return req.Dir, nil
	}
	dir := req.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(e.Workspace, dir)
	}
	dir = filepath.Clean(dir)
	if err := e.within("dir", req.Dir, dir); err != nil {
		return "", err
	}
	return dir, nil
}

// within reports an ErrOutsideWorkspace error when path is not the
// workspace or below it. An engine without a workspace accepts any path.
func (e *Engine) within(what, raw, path string) error {
	if e.Workspace == "" {
		return nil
	}
	rel, err := filepath.Rel(e.Workspace, filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolving %s %q: %w", what, raw, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s %q is outside %s", ErrOutsideWorkspace, what, raw, e.Workspace)
	}
	return nil
}

// ResolveTool returns the path of the dotnet executable, or "" when it
// cannot be found. Names containing a path separator are checked as-is;
// bare names are looked up on PATH, then under $DOTNET_ROOT and ~/.dotnet.
func ResolveTool(name string) string {
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		if isExecutable(name) {
			return name
		}
		return ""
	}
	if p, err := exec.LookPath(name); err == nil {
		return p
	}

	exe := name
	if runtime.GOOS == "windows" && !strings.HasSuffix(exe, ".exe") {
		exe += ".exe"
	}
	var dirs []string
	if root := os.Getenv("DOTNET_ROOT"); root != "" {
		dirs = append(dirs, root)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".dotnet"))
	}
	for _, dir := range dirs {
		if p := filepath.Join(dir, exe); isExecutable(p) {
			return p
		}
	}
	return ""
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode()&0o111 != 0
}

func dirExists(path string) bool {
	if path == "" {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ErrToolUnavailable is returned when the dotnet executable cannot be
// started. It includes actionable install instructions.
type ErrToolUnavailable struct {
	Name string
	Err  error
}

// NewErrToolUnavailable wraps the spawn error err for the tool name.
func NewErrToolUnavailable(name string, err error) ErrToolUnavailable {
	return ErrToolUnavailable{Name: name, Err: err}
}

func (e ErrToolUnavailable) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is required but not installed.", e.Name)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "\nInstall:")
	fmt.Fprintf(&b, "\n  https://dotnet.microsoft.com/download")
	fmt.Fprintf(&b, "\n  curl -sSL https://dot.net/v1/dotnet-install.sh | bash   # installs into ~/.dotnet")
	fmt.Fprintf(&b, "\nSet DOTNET_ROOT or the tool key of .dotnetrun if dotnet lives outside PATH.")
	return b.String()
}

func (e ErrToolUnavailable) Unwrap() error { return e.Err }
