package workflow

import (
	"fmt"
	"strings"

	"github.com/deixis/dotnetrun/internal/report"
)

// maxOutputLines is the number of trailing output lines shown for a failed
// run that produced no parseable diagnostics.
const maxOutputLines = 30

// FormatRun renders a run for humans and models. With verbose set, the
// full tool output is appended.
func FormatRun(rr *report.RunResult, verbose bool) string {
	var b strings.Builder

	if rr.HasErrors() {
		fmt.Fprintf(&b, "Status: FAIL (exit code %d)\n", rr.ExitCode)
	} else {
		fmt.Fprintln(&b, "Status: OK")
	}
	fmt.Fprintf(&b, "Run: %s\n", rr.ID)
	fmt.Fprintf(&b, "Command: %s\n", rr.CommandLine)
	fmt.Fprintln(&b)

	errs, warns := rr.Count(report.SeverityError), rr.Count(report.SeverityWarning)
	if errs > 0 || warns > 0 {
		fmt.Fprintf(&b, "Diagnostics: %d errors, %d warnings\n", errs, warns)
		for _, d := range rr.Diagnostics {
			fmt.Fprintf(&b, "  %s\n", FormatDiagnostic(d))
		}
		fmt.Fprintln(&b)
	}

	if t := rr.Tests; t != nil {
		fmt.Fprintf(&b, "Tests: %d total, %d passed, %d failed, %d skipped\n", t.Total, t.Succeeded, t.Failed, t.Skipped)
		for _, f := range rr.TestFailures {
			fmt.Fprintf(&b, "  FAIL %s [%s]\n", f.Test, f.Duration)
		}
		fmt.Fprintln(&b)
	}

	switch {
	case verbose && rr.Output != "":
		fmt.Fprintln(&b, "Output:")
		fmt.Fprintln(&b, indent(strings.TrimRight(rr.Output, "\n")))
	case rr.HasErrors() && len(rr.Diagnostics) == 0 && rr.Output != "":
		fmt.Fprintln(&b, "Output (tail):")
		fmt.Fprintln(&b, indent(tailLines(rr.Output, maxOutputLines)))
	}
	if rr.Truncated {
		fmt.Fprintln(&b, "Note: output exceeded max_output and was truncated.")
	}

	return b.String()
}

// FormatDiagnostic renders d in the compiler's file(line,col) style.
func FormatDiagnostic(d report.Diagnostic) string {
	var b strings.Builder
	if d.File != "" {
		b.WriteString(d.File)
		if d.Line > 0 {
			if d.Col > 0 {
				fmt.Fprintf(&b, "(%d,%d)", d.Line, d.Col)
			} else {
				fmt.Fprintf(&b, "(%d)", d.Line)
			}
		}
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s %s: %s", d.Severity, d.Code, d.Message)
	if d.Project != "" {
		fmt.Fprintf(&b, " [%s]", d.Project)
	}
	return b.String()
}

func tailLines(s string, maxLines int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return fmt.Sprintf("... (%d earlier lines)\n", len(lines)-maxLines) + strings.Join(lines[len(lines)-maxLines:], "\n")
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
