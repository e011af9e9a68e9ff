package workflow

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/deixis/dotnetrun/internal/report"
)

// msbuildLine matches the canonical MSBuild diagnostic format:
//
//	origin(line,col): error|warning CODE: message [project]
//
// where origin is a file, a project, or a tool name such as CSC or MSBUILD,
// and the position and project suffix are optional.
var msbuildLine = regexp.MustCompile(
	`^\s*(?:(?P<origin>.+?)(?:\((?P<line>\d+)(?:,(?P<col>\d+))?(?:,\d+,\d+)?\))?\s*:\s*)?` +
		`(?P<sev>error|warning)\s+(?P<code>[A-Za-z]+\d+)\s*:\s*(?P<msg>.*?)` +
		`(?:\s+\[(?P<project>[^\]]+)\])?\s*$`)

// ParseDiagnostics extracts MSBuild errors and warnings from tool output.
// MSBuild repeats every diagnostic in its final summary; duplicates are
// dropped so each one is reported once, in first-seen order.
func ParseDiagnostics(output string) []report.Diagnostic {
	var out []report.Diagnostic
	seen := make(map[report.Diagnostic]bool)

	for _, line := range strings.Split(output, "\n") {
		m := msbuildLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		d := report.Diagnostic{
			Severity: report.Severity(m[msbuildLine.SubexpIndex("sev")]),
			Code:     m[msbuildLine.SubexpIndex("code")],
			Message:  m[msbuildLine.SubexpIndex("msg")],
			Project:  m[msbuildLine.SubexpIndex("project")],
		}
		if origin := strings.TrimSpace(m[msbuildLine.SubexpIndex("origin")]); isFileOrigin(origin) {
			d.File = origin
		}
		d.Line, _ = strconv.Atoi(m[msbuildLine.SubexpIndex("line")])
		d.Col, _ = strconv.Atoi(m[msbuildLine.SubexpIndex("col")])

		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// isFileOrigin reports whether origin names a file rather than a tool
// such as CSC, MSBUILD or "dotnet".
func isFileOrigin(origin string) bool {
	return origin != "" && strings.ContainsAny(origin, `./\`)
}

var (
	testTotals = regexp.MustCompile(
		`(Passed|Failed)!\s+-\s+Failed:\s+(\d+),\s+Passed:\s+(\d+),\s+Skipped:\s+(\d+),\s+Total:\s+(\d+)`)
	testFailed = regexp.MustCompile(`^\s*Failed\s+(\S.*?)\s+\[([^\]]+)\]\s*$`)
)

// ParseTestOutput extracts the totals and failed test names printed by
// dotnet test. Totals of several test projects are summed. The summary is
// nil when the output holds no totals line, e.g. when the build failed.
func ParseTestOutput(output string) (*report.TestSummary, []report.TestFailure) {
	var summary *report.TestSummary
	var failures []report.TestFailure

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := testTotals.FindStringSubmatch(line); m != nil {
			if summary == nil {
				summary = &report.TestSummary{Passed: true}
			}
			failed, _ := strconv.Atoi(m[2])
			passed, _ := strconv.Atoi(m[3])
			skipped, _ := strconv.Atoi(m[4])
			total, _ := strconv.Atoi(m[5])
			summary.Failed += failed
			summary.Succeeded += passed
			summary.Skipped += skipped
			summary.Total += total
			if m[1] == "Failed" || failed > 0 {
				summary.Passed = false
			}
			continue
		}
		if m := testFailed.FindStringSubmatch(line); m != nil {
			failures = append(failures, report.TestFailure{Test: m[1], Duration: m[2]})
		}
	}
	return summary, failures
}
