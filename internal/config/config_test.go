package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deixis/dotnetrun/internal/command"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `version: 1
tool: /opt/dotnet/dotnet
timeout: 10m
configuration: Release
properties:
  Zeta: last-alphabetically
  Alpha: 1.5
  Deterministic: true
pack:
  args: ["--include-symbols"]
  properties:
    PackageVersion: 1.2.3
`)

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RepoRoot != dir {
		t.Errorf("RepoRoot = %q, want %q", res.RepoRoot, dir)
	}
	if res.Path != filepath.Join(dir, FileName) {
		t.Errorf("Path = %q", res.Path)
	}
	cfg := res.Config
	if cfg.Version != 1 || cfg.ToolName() != "/opt/dotnet/dotnet" || cfg.Timeout() != 10*time.Minute {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Configuration != "Release" {
		t.Errorf("Configuration = %q, want Release", cfg.Configuration)
	}

	want := PropertyList{
		{Key: "Zeta", Value: "last-alphabetically"},
		{Key: "Alpha", Value: "1.5"},
		{Key: "Deterministic", Value: "true"},
	}
	if len(cfg.Properties) != len(want) {
		t.Fatalf("Properties = %v, want %v", cfg.Properties, want)
	}
	for i := range want {
		if cfg.Properties[i] != want[i] {
			t.Errorf("Properties[%d] = %v, want %v", i, cfg.Properties[i], want[i])
		}
	}

	pack := cfg.Operation("pack")
	if len(pack.Args) != 1 || pack.Args[0] != "--include-symbols" {
		t.Errorf("pack.Args = %v", pack.Args)
	}
	if len(pack.Properties) != 1 || pack.Properties[0].Key != "PackageVersion" || pack.Properties[0].Value != "1.2.3" {
		t.Errorf("pack.Properties = %v", pack.Properties)
	}
}

func TestLoad_TOMLKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, TOMLFileName), `version = 2
timeout = "90s"
max_output = -1

[properties]
Zeta = "z"
Alpha = 3
Beta = false

[test]
args = ["--logger", "trx"]

[test.properties]
CollectCoverage = true
CoverletOutputFormat = "cobertura"
`)

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := res.Config
	if cfg.Version != 2 || cfg.Timeout() != 90*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.MaxOutputBytes() != 0 {
		t.Errorf("MaxOutputBytes = %d, want 0 (unlimited)", cfg.MaxOutputBytes())
	}

	got := cfg.Properties.Set()
	if keys := got.Keys(); len(keys) != 3 || keys[0] != "Zeta" || keys[1] != "Alpha" || keys[2] != "Beta" {
		t.Errorf("property order = %v, want [Zeta Alpha Beta]", keys)
	}
	if v, _ := got.Get("Alpha"); v != int64(3) {
		t.Errorf("Alpha = %#v, want int64(3)", v)
	}

	test := cfg.Operation("test")
	if len(test.Args) != 2 {
		t.Errorf("test.Args = %v", test.Args)
	}
	line := command.Compose("test", test.Properties.Set(), nil)
	if line != "test -p:CollectCoverage=true -p:CoverletOutputFormat=cobertura" {
		t.Errorf("composed = %q", line)
	}
}

func TestLoad_FromSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "App.sln"), "")
	writeFile(t, filepath.Join(root, FileName), "version: 3\n")

	sub := filepath.Join(root, "src", "App")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := Load(sub)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RepoRoot != root {
		t.Errorf("RepoRoot = %q, want %q", res.RepoRoot, root)
	}
	if res.Config.Version != 3 {
		t.Errorf("Config.Version = %d, want 3", res.Config.Version)
	}
}

func TestLoad_SolutionMarker(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "App.sln"), "")
	sub := filepath.Join(root, "src")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := Load(sub)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RepoRoot != root {
		t.Errorf("RepoRoot = %q, want %q", res.RepoRoot, root)
	}
	if res.Path != "" {
		t.Errorf("Path = %q, want empty", res.Path)
	}
}

func TestLoad_NoConfig(t *testing.T) {
	dir := t.TempDir()

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Config.Version != 0 || res.Config.RawTimeout != "" {
		t.Errorf("expected default config, got %+v", res.Config)
	}
	if res.Config.ToolName() != DefaultTool {
		t.Errorf("ToolName = %q, want %q", res.Config.ToolName(), DefaultTool)
	}
	if res.Config.Timeout() != DefaultTimeout || res.Config.MaxOutputBytes() != DefaultMaxOutput || res.Config.MaxParallel() != DefaultParallelism {
		t.Errorf("unexpected defaults: %+v", res.Config)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "properties: [a, b]\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for non-mapping properties")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "timeout: soon\nparallelism: -2\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_EmptyProperties(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "properties:\nbuild:\n  properties:\n")
	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Config.Properties) != 0 {
		t.Errorf("Properties = %v, want empty", res.Config.Properties)
	}
}

func TestOperation_Unknown(t *testing.T) {
	cfg := &Config{}
	if op := cfg.Operation("deploy"); len(op.Args) != 0 || len(op.Properties) != 0 {
		t.Errorf("Operation(deploy) = %+v, want empty", op)
	}
}

func TestLoad_YAMLKeepsScalarText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `properties:
  Version: 1.10
  LangVersion: 10.0
  Build: 007
  Flag: true
  Empty:
  Hex: 0x1F
`)
	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := PropertyList{
		{Key: "Version", Value: "1.10"},
		{Key: "LangVersion", Value: "10.0"},
		{Key: "Build", Value: "007"},
		{Key: "Flag", Value: "true"},
		{Key: "Empty", Value: ""},
		{Key: "Hex", Value: "0x1F"},
	}
	if len(res.Config.Properties) != len(want) {
		t.Fatalf("Properties = %v, want %v", res.Config.Properties, want)
	}
	for i := range want {
		if res.Config.Properties[i] != want[i] {
			t.Errorf("Properties[%d] = %#v, want %#v", i, res.Config.Properties[i], want[i])
		}
	}

	line := command.Compose("build", res.Config.Properties[:4].Set(), nil)
	if want := "build -p:Version=1.10 -p:LangVersion=10.0 -p:Build=007 -p:Flag=true"; line != want {
		t.Errorf("CommandLine = %q, want %q", line, want)
	}
}

func TestLoad_NonScalarProperty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "properties:\n  Targets: [a, b]\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for a list-valued property")
	}
}
