package command

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ShellLine renders argv as a POSIX shell command, quoting each word so
// that pasting the line into sh runs exactly argv. It is meant for display
// (dry runs, logs); the runner never goes through a shell.
func ShellLine(argv ...string) (string, error) {
	words := make([]string, 0, len(argv))
	for _, a := range argv {
		q, err := syntax.Quote(a, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("quoting %q: %w", a, err)
		}
		words = append(words, q)
	}
	return strings.Join(words, " "), nil
}

// ShellLine returns the POSIX shell rendering of tool followed by the
// tokens of the descriptor's command line.
func (d Descriptor) ShellLine(tool string) (string, error) {
	args, err := Split(d.CommandLine())
	if err != nil {
		return "", err
	}
	return ShellLine(append([]string{tool}, args...)...)
}
