package command

import (
	"errors"
	"os"
	"slices"
	"strings"
)

// ErrEmptyCommand is returned by Build when no command name was given.
var ErrEmptyCommand = errors.New("command: command name is required")

// Option customises a Builder. Operations use options to contribute their
// own arguments and properties before the descriptor is frozen.
type Option func(*Builder)

// Builder accumulates the configuration of one tool invocation.
// A Builder is not safe for concurrent use.
type Builder struct {
	command string
	args    []string
	props   Properties
	dir     string
}

// New returns a Builder for command. The working directory defaults to the
// current directory of the calling process at the time New is called.
func New(command string) *Builder {
	dir, _ := os.Getwd()
	return &Builder{command: command, dir: dir}
}

// Arg appends arguments after the property flags, in order.
func (b *Builder) Arg(args ...string) *Builder {
	b.args = append(b.args, args...)
	return b
}

// Property sets a build property.
func (b *Builder) Property(key string, value any) *Builder {
	b.props.Set(key, value)
	return b
}

// Properties merges props into the builder, in props order.
func (b *Builder) Properties(props Properties) *Builder {
	b.props.Merge(props)
	return b
}

// WorkingDirectory overrides the directory the tool runs in.
func (b *Builder) WorkingDirectory(dir string) *Builder {
	b.dir = dir
	return b
}

// Apply runs opts against the builder in order.
func (b *Builder) Apply(opts ...Option) *Builder {
	for _, o := range opts {
		if o != nil {
			o(b)
		}
	}
	return b
}

// Build validates the configuration and returns the frozen descriptor.
func (b *Builder) Build() (Descriptor, error) {
	if strings.TrimSpace(b.command) == "" {
		return Descriptor{}, ErrEmptyCommand
	}
	return Descriptor{
		command: b.command,
		args:    slices.Clone(b.args),
		props:   b.props.Clone(),
		dir:     b.dir,
	}, nil
}

// Descriptor is an execution-ready, immutable tool invocation.
type Descriptor struct {
	command string
	args    []string
	props   Properties
	dir     string
}

// Command returns the command name, e.g. "build".
func (d Descriptor) Command() string { return d.command }

// Args returns a copy of the extra arguments.
func (d Descriptor) Args() []string { return slices.Clone(d.args) }

// Properties returns a copy of the build properties.
func (d Descriptor) Properties() Properties { return d.props.Clone() }

// WorkingDirectory returns the directory the tool runs in. An empty string
// means the current directory of the process executing the descriptor.
func (d Descriptor) WorkingDirectory() string { return d.dir }

// CommandLine returns the composed command line, without the tool name.
func (d Descriptor) CommandLine() string {
	return Compose(d.command, d.props, d.args)
}

// IsZero reports whether d was not produced by Build.
func (d Descriptor) IsZero() bool { return d.command == "" }
