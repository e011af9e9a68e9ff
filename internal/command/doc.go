// Package command builds dotnet command lines.
//
// A Builder accumulates the command name, build properties, extra arguments
// and working directory, and Build freezes them into an immutable
// Descriptor. The Descriptor renders the composed command line that is both
// executed and shown to users, so the two can never drift apart.
package command
