package command

import (
	"strings"
	"unicode"
)

// Escape turns a raw value into a single command-line token.
//
// Every double quote is escaped as \" and the token is wrapped in double
// quotes when it contains whitespace or a colon. No other character is
// treated specially. Split reads the result back; a value that needs
// quoting and ends in a backslash does not survive that round trip.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	if strings.ContainsFunc(s, needsQuoting) {
		return `"` + s + `"`
	}
	return s
}

// Unescape reverses Escape. An escaped token only starts with a double quote
// when Escape wrapped it, because every quote of the raw value is preceded by
// a backslash.
func Unescape(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `\"`, `"`)
}

func needsQuoting(r rune) bool {
	return r == ':' || unicode.IsSpace(r)
}
