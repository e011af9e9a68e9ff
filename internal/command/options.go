package command

import "strconv"

// WithConfiguration sets the MSBuild Configuration property.
func WithConfiguration(name string) Option {
	return func(b *Builder) {
		if name != "" {
			b.Property("Configuration", name)
		}
	}
}

// WithVersion sets the Version property used by pack and publish.
func WithVersion(version string) Option {
	return func(b *Builder) {
		if version != "" {
			b.Property("Version", version)
		}
	}
}

// WithNoRestore skips the implicit restore.
func WithNoRestore() Option {
	return func(b *Builder) { b.Arg("--no-restore") }
}

// WithNoBuild skips the implicit build of pack, publish and test.
func WithNoBuild() Option {
	return func(b *Builder) { b.Arg("--no-build") }
}

// WithOutput sets the output directory. The path is escaped here because
// arguments are appended verbatim.
func WithOutput(dir string) Option {
	return func(b *Builder) {
		if dir != "" {
			b.Arg("--output", Escape(dir))
		}
	}
}

// WithVerbosity sets the MSBuild verbosity level (q, m, n, d, diag).
func WithVerbosity(level string) Option {
	return func(b *Builder) {
		if level != "" {
			b.Arg("--verbosity", Escape(level))
		}
	}
}

// WithMaxCPU caps MSBuild node parallelism.
func WithMaxCPU(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.Arg("-maxcpucount:" + strconv.Itoa(n))
		}
	}
}

// WithProject passes the project or solution file as the first argument.
func WithProject(path string) Option {
	return func(b *Builder) {
		if path != "" {
			b.Arg(Escape(path))
		}
	}
}
