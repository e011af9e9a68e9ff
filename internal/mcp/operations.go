package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deixis/dotnetrun/internal/command"
	"github.com/deixis/dotnetrun/internal/runner"
	"github.com/deixis/dotnetrun/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var operationDescriptions = map[workflow.Operation]string{
	workflow.OpBuild: `Run dotnet build and return a summary of MSBuild errors and warnings.

Use this after changing C#/F# code or project files. Properties are passed as -p:Key=Value
in the order given. Results are stored for drill-down via dotnet_inspect.`,
	workflow.OpPack: `Run dotnet pack to produce NuGet packages.

Set output to choose the package directory. Results are stored for drill-down via dotnet_inspect.`,
	workflow.OpPublish: `Run dotnet publish to produce deployable output.

Set output to choose the publish directory. Results are stored for drill-down via dotnet_inspect.`,
	workflow.OpTest: `Run dotnet test and return test totals and failed test names.

Build errors are reported like dotnet_build. Results are stored for drill-down via dotnet_inspect.`,
	workflow.OpRestore: "Run dotnet restore to restore NuGet dependencies.",
	workflow.OpClean:   "Run dotnet clean to remove build outputs.",
}

// propertyParam is one MSBuild property. A list keeps the caller's order.
type propertyParam struct {
	Key   string `json:"key" jsonschema:"MSBuild property name, e.g. Configuration"`
	Value string `json:"value" jsonschema:"property value; quoted automatically when it contains spaces or colons"`
}

type operationParams struct {
	Projects      []string        `json:"projects,omitempty" jsonschema:"project or solution files inside the workspace. Several entries run concurrently. Defaults to the one dotnet finds in the workspace."`
	Configuration string          `json:"configuration,omitempty" jsonschema:"build configuration, e.g. Debug or Release. Defaults to the configured value."`
	Properties    []propertyParam `json:"properties,omitempty" jsonschema:"MSBuild properties, applied in order after the configured ones"`
	Args          []string        `json:"args,omitempty" jsonschema:"extra dotnet arguments, one token per element, e.g. --filter then FullyQualifiedName~My Tests; tokens are quoted as needed"`
	Output        string          `json:"output,omitempty" jsonschema:"output directory (--output)"`
	Verbosity     string          `json:"verbosity,omitempty" jsonschema:"MSBuild verbosity: q, m, n, d or diag"`
	NoRestore     bool            `json:"no_restore,omitempty" jsonschema:"skip the implicit restore"`
	NoBuild       bool            `json:"no_build,omitempty" jsonschema:"skip the implicit build (pack, publish, test)"`
	Verbose       bool            `json:"verbose,omitempty" jsonschema:"include the full tool output in the result"`
}

func (p operationParams) requests(op workflow.Operation) []workflow.Request {
	props := command.Properties{}
	for _, kv := range p.Properties {
		props.Set(kv.Key, kv.Value)
	}
	opts := []command.Option{
		command.WithOutput(p.Output),
		command.WithVerbosity(p.Verbosity),
	}
	if p.NoRestore {
		opts = append(opts, command.WithNoRestore())
	}
	if p.NoBuild {
		opts = append(opts, command.WithNoBuild())
	}

	projects := p.Projects
	if len(projects) == 0 {
		projects = []string{""}
	}
	reqs := make([]workflow.Request, 0, len(projects))
	for _, project := range projects {
		reqs = append(reqs, workflow.Request{
			Operation:     op,
			Project:       project,
			Configuration: p.Configuration,
			Properties:    props,
			Args:          p.Args,
			Options:       opts,
		})
	}
	return reqs
}

func (h *handler) operationHandler(op workflow.Operation) mcp.ToolHandlerFor[operationParams, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params operationParams) (*mcp.CallToolResult, any, error) {
		for _, kv := range params.Properties {
			if strings.TrimSpace(kv.Key) == "" {
				return errorResult("property key must not be empty")
			}
		}

		engine, _ := h.snapshot()
		results, err := engine.RunAll(ctx, params.requests(op))
		if err != nil {
			h.logger.Error("operation failed", "op", op, "err", err)
			return errorResult(operationError(op, err))
		}

		var b strings.Builder
		for i, res := range results {
			if err := h.store.Save(res.RunResult); err != nil {
				h.logger.Warn("saving run", "run_id", res.RunResult.ID, "err", err)
			}
			if i > 0 {
				fmt.Fprintln(&b, "---")
			}
			if res.RunResult.Project != "" {
				fmt.Fprintf(&b, "Project: %s\n", res.RunResult.Project)
			}
			b.WriteString(workflow.FormatRun(res.RunResult, params.Verbose))
			if len(res.RunResult.Diagnostics) > 0 || len(res.RunResult.TestFailures) > 0 {
				fmt.Fprintf(&b, "Inspect with dotnet_inspect(run_id=%q, selector=\"<code, project or file>\").\n", res.RunResult.ID)
			}
		}
		return textResult(b.String())
	}
}

func operationError(op workflow.Operation, err error) string {
	var unavail workflow.ErrToolUnavailable
	switch {
	case errors.As(err, &unavail):
		return unavail.Error()
	case errors.Is(err, runner.ErrCanceled):
		return fmt.Sprintf("dotnet %s did not finish before the timeout and was stopped: %v", op, err)
	}
	return fmt.Sprintf("dotnet %s failed: %v", op, err)
}
