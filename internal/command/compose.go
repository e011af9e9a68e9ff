package command

import "strings"

// Compose assembles the command line handed to the tool:
//
//	<command>[ -p:<key>=<escaped value>]...[ <arg>]...
//
// Property values are formatted with FormatValue and escaped with Escape.
// Arguments are appended verbatim; callers building arguments from raw
// values must escape them first.
func Compose(command string, props Properties, args []string) string {
	var b strings.Builder
	b.WriteString(command)
	for k, v := range props.All() {
		b.WriteString(" -p:")
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(Escape(FormatValue(v)))
	}
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	return b.String()
}
