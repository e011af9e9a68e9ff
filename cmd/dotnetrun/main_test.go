package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deixis/dotnetrun"
	"github.com/deixis/dotnetrun/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeDotnet = `#!/bin/sh
echo "args: $*"
case "$*" in
*Broken*)
  echo "Program.cs(3,1): error CS1002: ; expected [/src/Broken/Broken.csproj]"
  exit 1
  ;;
esac
`

// workspace prepares a directory whose .dotnetrun points at a fake dotnet.
func workspace(t *testing.T, extraConfig string) string {
	t.Helper()
	dir := t.TempDir()
	tool := filepath.Join(t.TempDir(), "dotnet")
	require.NoError(t, os.WriteFile(tool, []byte(fakeDotnet), 0o755))
	cfg := "tool: " + tool + "\n" + extraConfig
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".dotnetrun"), []byte(cfg), 0o644))
	t.Setenv("DOTNETRUN_LOG_LEVEL", "off")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuild(t *testing.T) {
	dir := workspace(t, "configuration: Debug\nproperties:\n  Deterministic: true\n")

	out, err := execute(t, "build", "-C", dir, "-c", "Release", "-p", "Version=1.2.3", "-p", "Company=Acme Inc", "App.csproj", "--", "--nologo")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: OK")
	assert.Contains(t, out, `build -p:Deterministic=true -p:Configuration=Release -p:Version=1.2.3 -p:Company="Acme Inc" App.csproj --nologo`)
	assert.Contains(t, out, "Project: App.csproj")
}

func TestBuild_Failing(t *testing.T) {
	dir := workspace(t, "")

	out, err := execute(t, "build", "-C", dir, "Broken.csproj")
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "Status: FAIL (exit code 1)")
	assert.Contains(t, out, "Program.cs(3,1): error CS1002: ; expected")
}

func TestBuild_SeveralProjectsJSON(t *testing.T) {
	dir := workspace(t, "")

	out, err := execute(t, "build", "-C", dir, "--json", "A.csproj", "B.csproj")
	require.NoError(t, err)

	var runs []report.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "A.csproj", runs[0].Project)
	assert.Equal(t, "B.csproj", runs[1].Project)
	assert.Equal(t, report.Build, runs[0].Kind)
}

func TestPack_Options(t *testing.T) {
	dir := workspace(t, "pack:\n  args: [--include-symbols]\n")

	out, err := execute(t, "pack", "-C", dir, "--json", "-o", "out dir", "--no-build")
	require.NoError(t, err)

	var run report.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.True(t, strings.HasSuffix(run.CommandLine, `pack --include-symbols --output "out dir" --no-build`), run.CommandLine)
	assert.Contains(t, run.Output, "args: pack --include-symbols --output out dir --no-build")
}

func TestInvalidProperty(t *testing.T) {
	dir := workspace(t, "")
	_, err := execute(t, "build", "-C", dir, "-p", "NoEquals")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid property "NoEquals"`)
}

func TestSaveAndInspect(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)
	t.Setenv("HOME", cache)
	dir := workspace(t, "")

	out, err := execute(t, "build", "-C", dir, "--save", "--json", "Broken.csproj")
	require.ErrorIs(t, err, errFailed)
	var run report.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &run))

	out, err = execute(t, "inspect", run.ID, "CS1002")
	require.NoError(t, err)
	assert.Contains(t, out, "Run: "+run.ID+" (build)")
	assert.Contains(t, out, "Program.cs(3,1): error CS1002: ; expected [/src/Broken/Broken.csproj]")

	out, err = execute(t, "inspect", run.ID, "CS0000")
	require.NoError(t, err)
	assert.Contains(t, out, "No diagnostics found.")
}

func TestInspect_UnknownRun(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	_, err := execute(t, "inspect", "not-a-run")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, dotnetrun.Version+"\n", out)
}

func TestMCPInstructions(t *testing.T) {
	out, err := execute(t, "mcp", "--instructions")
	require.NoError(t, err)
	assert.Contains(t, out, "dotnet_inspect")
}

func TestParseProperties(t *testing.T) {
	props, err := parseProperties([]string{"A=1", "B=x=y", "A=2", "C="})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, props.Keys())
	v, _ := props.Get("A")
	assert.Equal(t, "2", v)
	v, _ = props.Get("B")
	assert.Equal(t, "x=y", v)

	_, err = parseProperties([]string{"=v"})
	assert.Error(t, err)
}

func TestTest_PassthroughArgsKeepSpaces(t *testing.T) {
	dir := workspace(t, "")

	out, err := execute(t, "test", "-C", dir, "-v", "--", "--filter", "FullyQualifiedName~My Tests")
	require.NoError(t, err)
	assert.Contains(t, out, `test --filter "FullyQualifiedName~My Tests"`)
	assert.Contains(t, out, "args: test --filter FullyQualifiedName~My Tests")

	out, err = execute(t, "test", "-C", dir, "--json", "--", "--filter", "Category=Unit|Category=Fast")
	require.NoError(t, err)
	var run report.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.True(t, strings.HasSuffix(run.CommandLine, "test --filter Category=Unit|Category=Fast"), run.CommandLine)
}

func TestDryRun(t *testing.T) {
	dir := workspace(t, "")

	out, err := execute(t, "build", "-C", dir, "--dry-run", "-p", "Company=O'Reilly", "App.csproj", "--", "--filter", "My Tests")
	require.NoError(t, err)
	assert.NotContains(t, out, "args:", "dry run must not start dotnet")
	assert.Contains(t, out, "build")
	assert.Contains(t, out, "Reilly")
	assert.Contains(t, out, "'My Tests'")
}

func TestBuild_ProjectOutsideWorkspace(t *testing.T) {
	dir := workspace(t, "")
	_, err := execute(t, "build", "-C", dir, "../elsewhere/App.csproj")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside workspace")
}
