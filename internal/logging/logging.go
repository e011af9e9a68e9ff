// Package logging configures the structured logger shared by the runner,
// the workflow engine and the command-line interface.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// Environment variables overriding the profile defaults.
const (
	EnvLogLevel     = "DOTNETRUN_LOG_LEVEL"
	EnvLogTimestamp = "DOTNETRUN_LOG_TIMESTAMP"
)

// Prefix is printed in front of every log line.
const Prefix = "dotnetrun"

// Profile selects the defaults applied before environment overrides.
type Profile int

const (
	// ProfileRuntime logs info and above with timestamps.
	ProfileRuntime Profile = iota
	// ProfileVerbose logs debug and above with timestamps.
	ProfileVerbose
	// ProfileTest logs debug and above without timestamps.
	ProfileTest
)

// Options is the resolved logger configuration.
type Options struct {
	Level     log.Level
	Timestamp bool
	Disabled  bool
}

// New returns a logger writing to w.
func New(w io.Writer, profile Profile) *log.Logger {
	opts := defaultOptions(profile)
	applyEnvOverrides(&opts)
	if opts.Disabled {
		return Discard()
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           opts.Level,
		ReportTimestamp: opts.Timestamp,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel + 1})
}

func defaultOptions(profile Profile) Options {
	switch profile {
	case ProfileVerbose:
		return Options{Level: log.DebugLevel, Timestamp: true}
	case ProfileTest:
		return Options{Level: log.DebugLevel}
	default:
		return Options{Level: log.InfoLevel, Timestamp: true}
	}
}

func applyEnvOverrides(opts *Options) {
	if lvl, disabled, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
		opts.Disabled = disabled
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		opts.Timestamp = v
	}
}

func parseLevel(raw string) (log.Level, bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return log.InfoLevel, false, false
	case "trace", "debug":
		return log.DebugLevel, false, true
	case "info":
		return log.InfoLevel, false, true
	case "warn", "warning":
		return log.WarnLevel, false, true
	case "error":
		return log.ErrorLevel, false, true
	case "off", "none", "disabled":
		return log.InfoLevel, true, true
	default:
		return log.InfoLevel, false, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
