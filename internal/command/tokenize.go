package command

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnterminatedQuote is returned by Split when a quoted token is not
// closed before the end of the line.
var ErrUnterminatedQuote = errors.New("command: unterminated quote")

// Split tokenizes a composed command line into argv, following the .NET
// command-line convention that Escape writes for:
//
//   - unquoted whitespace separates tokens;
//   - a double quote opens or closes a quoted span and is removed;
//   - \" yields a literal double quote, inside or outside a quoted span;
//   - every other character, backslashes included, is literal.
//
// No shell is involved, so characters such as ; & | ' $ * are plain text.
// A value that needs quoting and ends in a backslash cannot be told apart
// from an embedded quote; Split reports it as ErrUnterminatedQuote.
func Split(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inToken bool
		quoted  bool
	)
	rs := []rune(line)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\' && i+1 < len(rs) && rs[i+1] == '"':
			cur.WriteRune('"')
			inToken = true
			i++
		case r == '"':
			quoted = !quoted
			inToken = true
		case !quoted && unicode.IsSpace(r):
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("%w: %q", ErrUnterminatedQuote, line)
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}
