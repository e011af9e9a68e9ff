// Package report provides structured persistence and retrieval of
// dotnet run results. Results are stored as typed structs and can be
// queried by project, diagnostic code or file.
package report

import (
	"fmt"
	"strings"
)

// Kind identifies the dotnet command of a run.
type Kind string

// Run kinds, one per dotnet command.
const (
	Build   Kind = "build"
	Pack    Kind = "pack"
	Publish Kind = "publish"
	Test    Kind = "test"
	Restore Kind = "restore"
	Clean   Kind = "clean"
)

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult holds the structured outcome of one dotnet invocation.
type RunResult struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Project     string `json:"project,omitempty"`
	CommandLine string `json:"command_line"`
	ExitCode    int    `json:"exit_code"`
	Truncated   bool   `json:"truncated,omitempty"`
	Output      string `json:"output,omitempty"`

	Diagnostics  []Diagnostic  `json:"diagnostics,omitempty"`
	Tests        *TestSummary  `json:"tests,omitempty"`
	TestFailures []TestFailure `json:"test_failures,omitempty"`
}

// HasErrors reports whether the tool exited with a non-zero code.
func (r *RunResult) HasErrors() bool { return r.ExitCode != 0 }

// Expect returns an error if the run's Kind does not match want.
func (r *RunResult) Expect(want Kind) error {
	if r.Kind != want {
		return fmt.Errorf("run %s is a %s run, not a %s run", r.ID, r.Kind, want)
	}
	return nil
}

// Count returns the number of diagnostics with the given severity.
func (r *RunResult) Count(severity Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == severity {
			n++
		}
	}
	return n
}

// Severity of an MSBuild diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one MSBuild error or warning, e.g.
//
//	Program.cs(12,5): error CS1002: ; expected [/src/App/App.csproj]
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Col      int      `json:"col,omitempty"`
	Message  string   `json:"message"`
	Project  string   `json:"project,omitempty"`
}

// TestSummary holds the totals printed by dotnet test.
type TestSummary struct {
	Passed    bool `json:"passed"`
	Failed    int  `json:"failed"`
	Succeeded int  `json:"succeeded"`
	Skipped   int  `json:"skipped"`
	Total     int  `json:"total"`
}

// TestFailure names a failed test.
type TestFailure struct {
	Test     string `json:"test"`
	Duration string `json:"duration,omitempty"`
}

// ByProject returns the diagnostics reported for a project file. The
// project matches on its full path or on its base name.
func ByProject(result *RunResult, project string) []Diagnostic {
	var out []Diagnostic
	for _, d := range result.Diagnostics {
		if d.Project == project || baseName(d.Project) == project {
			out = append(out, d)
		}
	}
	return out
}

// ByCode returns the diagnostics with the given code, e.g. CS1002.
func ByCode(result *RunResult, code string) []Diagnostic {
	var out []Diagnostic
	for _, d := range result.Diagnostics {
		if strings.EqualFold(d.Code, code) {
			out = append(out, d)
		}
	}
	return out
}

// ByFile returns the diagnostics reported for a source file. The file
// matches on its full path or on its base name.
func ByFile(result *RunResult, file string) []Diagnostic {
	var out []Diagnostic
	for _, d := range result.Diagnostics {
		if d.File == file || baseName(d.File) == file {
			out = append(out, d)
		}
	}
	return out
}

// Query resolves selector against a run: a diagnostic code, a project
// file, or a source file, tried in that order. An empty selector returns
// every diagnostic.
func Query(result *RunResult, selector string) []Diagnostic {
	if selector == "" {
		return result.Diagnostics
	}
	if d := ByCode(result, selector); len(d) > 0 {
		return d
	}
	if d := ByProject(result, selector); len(d) > 0 {
		return d
	}
	return ByFile(result, selector)
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
