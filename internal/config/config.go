// Package config loads and validates the optional .dotnetrun file
// (YAML, or TOML when named .dotnetrun.toml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/deixis/dotnetrun/internal/command"
	"gopkg.in/yaml.v3"
)

// Default values for runner configuration.
const (
	DefaultTool        = "dotnet"
	DefaultTimeout     = 30 * time.Minute
	DefaultMaxOutput   = 16 << 20 // 16 MB
	DefaultParallelism = 4
)

// File names looked up in the repository root, in order.
const (
	FileName     = ".dotnetrun"
	TOMLFileName = ".dotnetrun.toml"
)

// Config holds the parsed .dotnetrun configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version       int          `yaml:"version" toml:"version"`
	Tool          string       `yaml:"tool" toml:"tool"`             // dotnet executable name or path
	RawTimeout    string       `yaml:"timeout" toml:"timeout"`       // e.g. "10m", "90s"
	RawMaxOutput  int          `yaml:"max_output" toml:"max_output"` // bytes, -1 for unlimited
	Parallelism   int          `yaml:"parallelism" toml:"parallelism"`
	Configuration string       `yaml:"configuration" toml:"configuration"` // MSBuild Configuration, e.g. Release
	Properties    PropertyList `yaml:"properties" toml:"-"`                // applied to every operation

	Build   OperationConfig `yaml:"build" toml:"build"`
	Pack    OperationConfig `yaml:"pack" toml:"pack"`
	Publish OperationConfig `yaml:"publish" toml:"publish"`
	Test    OperationConfig `yaml:"test" toml:"test"`
	Restore OperationConfig `yaml:"restore" toml:"restore"`
	Clean   OperationConfig `yaml:"clean" toml:"clean"`
}

// OperationConfig holds the defaults of one dotnet command.
type OperationConfig struct {
	Args       []string     `yaml:"args" toml:"args"` // appended after the properties, one token each
	Properties PropertyList `yaml:"properties" toml:"-"`
}

// Operations lists the dotnet commands that can be configured.
var Operations = []string{"build", "pack", "publish", "test", "restore", "clean"}

// Operation returns the defaults for the named command. Unknown names
// yield an empty OperationConfig.
func (c *Config) Operation(name string) OperationConfig {
	if op := c.operation(name); op != nil {
		return *op
	}
	return OperationConfig{}
}

func (c *Config) operation(name string) *OperationConfig {
	switch name {
	case "build":
		return &c.Build
	case "pack":
		return &c.Pack
	case "publish":
		return &c.Publish
	case "test":
		return &c.Test
	case "restore":
		return &c.Restore
	case "clean":
		return &c.Clean
	}
	return nil
}

// ToolName returns the configured executable or the default.
func (c *Config) ToolName() string {
	if c.Tool != "" {
		return c.Tool
	}
	return DefaultTool
}

// Timeout returns the configured timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured max output size or the default.
// A negative value disables the cap and is returned as 0.
func (c *Config) MaxOutputBytes() int {
	switch {
	case c.RawMaxOutput < 0:
		return 0
	case c.RawMaxOutput > 0:
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// MaxParallel returns how many invocations may run at once.
func (c *Config) MaxParallel() int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return DefaultParallelism
}

// Validate reports configuration values that can never work.
func (c *Config) Validate() error {
	var errs []error
	if c.RawTimeout != "" {
		if d, err := time.ParseDuration(c.RawTimeout); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("timeout %q is not a positive duration", c.RawTimeout))
		}
	}
	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("parallelism must not be negative, got %d", c.Parallelism))
	}
	for _, name := range Operations {
		for _, p := range c.Operation(name).Properties {
			if p.Key == "" {
				errs = append(errs, fmt.Errorf("%s: property with empty name", name))
			}
		}
	}
	for _, p := range c.Properties {
		if p.Key == "" {
			errs = append(errs, errors.New("property with empty name"))
		}
	}
	return errors.Join(errs...)
}

// PropertyList is an ordered list of build properties. Document order is
// preserved so that flags appear on the command line as written.
type PropertyList []command.Property

// UnmarshalYAML decodes a mapping while keeping its key order. Values keep
// their literal text, so 1.10 stays 1.10 and 007 stays 007.
func (l *PropertyList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*l = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}
	out := make(PropertyList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, v := node.Content[i].Value, node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: property %s must be a scalar", v.Line, key)
		}
		value := v.Value
		if v.Tag == "!!null" {
			value = ""
		}
		out = append(out, command.Property{Key: key, Value: value})
	}
	*l = out
	return nil
}

// Set returns the list as command properties.
func (l PropertyList) Set() command.Properties {
	return command.PropertiesOf(l...)
}

// LoadResult holds the parsed config and the discovered repository root.
type LoadResult struct {
	Config   *Config
	RepoRoot string // directory holding the config file or a root marker; falls back to workspace
	Path     string // config file that was read, empty when none
}

// Load reads the configuration from the repository root.
// The repository root is discovered by walking upward from workspace. If no
// configuration file exists, a default Config is returned.
func Load(workspace string) (*LoadResult, error) {
	root, err := findRepoRoot(workspace)
	if err != nil {
		// No marker found; use workspace as root.
		root = workspace
	}

	for _, name := range []string{FileName, TOMLFileName} {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		var cfg *Config
		if name == TOMLFileName {
			cfg, err = parseTOML(data)
		} else {
			cfg, err = parseYAML(data)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		return &LoadResult{Config: cfg, RepoRoot: root, Path: path}, nil
	}
	return &LoadResult{Config: &Config{}, RepoRoot: root}, nil
}

func parseYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseTOML decodes data twice: once into Config, and once generically so
// that property tables can be rebuilt in document order from the metadata.
func parseTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}
	for _, key := range md.Keys() {
		switch {
		case len(key) == 2 && key[0] == "properties":
			cfg.Properties = append(cfg.Properties, command.Property{Key: key[1], Value: lookup(raw, key)})
		case len(key) == 3 && key[1] == "properties":
			if op := cfg.operation(key[0]); op != nil {
				op.Properties = append(op.Properties, command.Property{Key: key[2], Value: lookup(raw, key)})
			}
		}
	}
	return cfg, nil
}

func lookup(raw map[string]any, key toml.Key) any {
	var cur any = raw
	for _, k := range key {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// rootMarkers identify a repository root when no config file is present.
var rootMarkers = []string{FileName, TOMLFileName, "global.json", ".git"}

// findRepoRoot walks upward from dir looking for a config file, a root
// marker, or a solution file.
func findRepoRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		if matches, _ := filepath.Glob(filepath.Join(dir, "*.sln")); len(matches) > 0 {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("repository root not found")
		}
		dir = parent
	}
}
