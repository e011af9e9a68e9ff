// Package mcp provides the dotnetrun MCP server, registering one tool per
// dotnet operation plus drill-down tools, and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deixis/dotnetrun"
	"github.com/deixis/dotnetrun/internal/config"
	"github.com/deixis/dotnetrun/internal/logging"
	"github.com/deixis/dotnetrun/internal/report"
	"github.com/deixis/dotnetrun/internal/runner"
	"github.com/deixis/dotnetrun/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	mu     sync.RWMutex // guards engine and runner while roots update them
	engine *workflow.Engine
	runner *runner.Runner
	store  report.Store
	logger *log.Logger
}

// NewServer creates an MCP server with all dotnetrun tools registered.
func NewServer(cfg *config.Config, r *runner.Runner, store report.Store, workspace string, opts ...ServerOption) *mcp.Server {
	var so serverOptions
	for _, o := range opts {
		o(&so)
	}
	if so.logger == nil {
		so.logger = logging.Discard()
	}

	h := &handler{
		engine: &workflow.Engine{
			Config:    cfg,
			Runner:    r,
			Workspace: workspace,
		},
		runner: r,
		store:  store,
		logger: so.logger,
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	if !so.ignoreRoots {
		mcpOpts.InitializedHandler = func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		}
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "dotnetrun", Version: dotnetrun.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "dotnet_workspace",
		Description: "Summarise the .NET workspace: SDK version, global.json pin, and the solution and project files it contains.",
	}, h.workspaceHandler)

	for _, op := range workflow.Operations {
		mcp.AddTool(s, &mcp.Tool{
			Name:        toolName(op),
			Description: operationDescriptions[op],
		}, h.operationHandler(op))
	}

	mcp.AddTool(s, &mcp.Tool{
		Name: "dotnet_inspect",
		Description: `Drill into the diagnostics of a previous run.

Use the run_id printed by any dotnet_* tool. The selector is a diagnostic code (e.g. CS1002),
a project file (full path or file name), or a source file (full path or file name).
Leave it empty to list every diagnostic and failed test of the run.`,
	}, h.inspectHandler)

	return s
}

// ServerOption configures the dotnetrun MCP server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger      *log.Logger
	ignoreRoots bool
}

// WithLogger sets the logger used for tool calls.
func WithLogger(l *log.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// WithoutRoots keeps the workspace given to NewServer instead of adopting
// the first root advertised by the client.
func WithoutRoots() ServerOption {
	return func(o *serverOptions) {
		o.ignoreRoots = true
	}
}

func toolName(op workflow.Operation) string {
	return "dotnet_" + string(op)
}

// updateWorkspaceFromRoots queries the client for MCP roots and re-targets
// the engine and runner at the first file root, reloading its config.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil || len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	workspace := u.Path

	loaded, err := config.Load(workspace)
	if err != nil {
		h.logger.Warn("ignoring root", "root", workspace, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	r := *h.runner
	r.Tool = loaded.Config.ToolName()
	r.Timeout = loaded.Config.Timeout()
	r.MaxOutput = loaded.Config.MaxOutputBytes()
	h.runner = &r

	h.engine = &workflow.Engine{
		Config:    loaded.Config,
		Runner:    &r,
		Workspace: workspace,
	}
	h.logger.Info("workspace from roots", "workspace", workspace, "config", loaded.Path)
}

// snapshot returns the engine and runner to use for one tool call.
func (h *handler) snapshot() (*workflow.Engine, *runner.Runner) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine, h.runner
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
