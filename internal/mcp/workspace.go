package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/deixis/dotnetrun/internal/command"
	"github.com/deixis/dotnetrun/internal/runner"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type workspaceParams struct{}

// projectExts are the file extensions listed as solutions or projects.
var projectExts = []string{".sln", ".slnx", ".csproj", ".fsproj", ".vbproj"}

// skipDirs are never descended into while listing projects.
var skipDirs = []string{".git", "bin", "obj", "node_modules", ".vs"}

func (h *handler) workspaceHandler(ctx context.Context, req *sdkmcp.CallToolRequest, _ workspaceParams) (*sdkmcp.CallToolResult, any, error) {
	engine, r := h.snapshot()
	root := engine.Workspace

	var b strings.Builder
	fmt.Fprintf(&b, "Directory: %s\n", root)
	fmt.Fprintf(&b, "SDK: %s\n", sdkVersion(ctx, r, root))
	if pin := globalJSONVersion(root); pin != "" {
		fmt.Fprintf(&b, "global.json: %s\n", pin)
	}
	fmt.Fprintln(&b)

	files, err := listProjects(root)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to list projects: %v", err))
	}
	fmt.Fprintf(&b, "Projects (%d):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&b, "  %s\n", f)
	}

	return textResult(b.String())
}

// sdkVersion runs `dotnet --version`. Failures are reported inline since
// the project list is still useful without an SDK.
func sdkVersion(ctx context.Context, r *runner.Runner, dir string) string {
	d, err := command.New("--version").WorkingDirectory(dir).Build()
	if err != nil {
		return fmt.Sprintf("(unavailable: %v)", err)
	}
	res, err := r.Run(ctx, d)
	if err != nil {
		return fmt.Sprintf("(unavailable: %v)", err)
	}
	if res.HasErrors() {
		return fmt.Sprintf("(unavailable: exit code %d)", res.ExitCode())
	}
	return strings.TrimSpace(res.Output())
}

// globalJSONVersion returns the SDK version pinned by global.json, if any.
func globalJSONVersion(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "global.json"))
	if err != nil {
		return ""
	}
	var g struct {
		SDK struct {
			Version string `json:"version"`
		} `json:"sdk"`
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return ""
	}
	return g.SDK.Version
}

// listProjects returns solution and project files under root, relative to
// root and sorted.
func listProjects(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && slices.Contains(skipDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(projectExts, strings.ToLower(filepath.Ext(path))) {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	slices.Sort(out)
	return out, err
}
