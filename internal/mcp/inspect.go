package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/dotnetrun/internal/report"
	"github.com/deixis/dotnetrun/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type inspectParams struct {
	RunID    string `json:"run_id" jsonschema:"the run ID from a dotnet_* tool result"`
	Selector string `json:"selector,omitempty" jsonschema:"diagnostic code (e.g. CS1002), project file, or source file. Empty lists everything."`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	result, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	diagnostics := report.Query(result, params.Selector)
	failures := result.TestFailures
	if params.Selector != "" {
		failures = nil
	}
	if len(diagnostics) == 0 && len(failures) == 0 {
		what := params.Selector
		if what == "" {
			what = "anything"
		}
		return textResult(fmt.Sprintf("No diagnostics found for %s in run %s (%s).", what, params.RunID, result.Kind))
	}

	return textResult(formatInspectOutput(result, params.Selector, diagnostics, failures))
}

func formatInspectOutput(rr *report.RunResult, selector string, diagnostics []report.Diagnostic, failures []report.TestFailure) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (%s)\n", rr.ID, rr.Kind)
	fmt.Fprintf(&b, "Command: %s\n", rr.CommandLine)
	if selector != "" {
		fmt.Fprintf(&b, "Selector: %s\n", selector)
	}
	fmt.Fprintln(&b)

	// Group by project so multi-project solutions read top-down.
	var projects []string
	groups := make(map[string][]report.Diagnostic)
	for _, d := range diagnostics {
		p := d.Project
		if p == "" {
			p = "(no project)"
		}
		if _, ok := groups[p]; !ok {
			projects = append(projects, p)
		}
		groups[p] = append(groups[p], d)
	}
	for _, p := range projects {
		fmt.Fprintf(&b, "%s:\n", p)
		for _, d := range groups[p] {
			d.Project = ""
			fmt.Fprintf(&b, "  %s\n", workflow.FormatDiagnostic(d))
		}
	}

	if len(failures) > 0 {
		if len(diagnostics) > 0 {
			fmt.Fprintln(&b)
		}
		fmt.Fprintln(&b, "Failed tests:")
		for _, f := range failures {
			fmt.Fprintf(&b, "  %s [%s]\n", f.Test, f.Duration)
		}
	}

	return b.String()
}
