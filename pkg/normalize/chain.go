package normalize

import (
	"fmt"
	"strings"
)

// splitChain splits a command line on the chaining operators &&, ||,
// ;, and | while respecting single quotes, double quotes, and
// backslash escapes. Segments preserve their original order.
//
// An unterminated quote returns an error; the caller degrades to
// treating the whole input as one literal sub-action.
func splitChain(text string) ([]string, error) {
	var (
		segments []string
		current  strings.Builder
		inSingle bool
		inDouble bool
		escaped  bool
	)

	flush := func() {
		if seg := strings.TrimSpace(current.String()); seg != "" {
			segments = append(segments, seg)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch {
		case r == '\\' && !inSingle:
			current.WriteRune(r)
			escaped = true

		case r == '\'' && !inDouble:
			current.WriteRune(r)
			inSingle = !inSingle

		case r == '"' && !inSingle:
			current.WriteRune(r)
			inDouble = !inDouble

		case !inSingle && !inDouble && (r == '&' || r == '|'):
			// && and || are two-rune operators; a single & (background)
			// is not a chain point, a single | (pipe) is.
			if i+1 < len(runes) && runes[i+1] == r {
				flush()
				i++
			} else if r == '|' {
				flush()
			} else {
				current.WriteRune(r)
			}

		case !inSingle && !inDouble && r == ';':
			flush()

		default:
			current.WriteRune(r)
		}
	}

	if inSingle || inDouble {
		return nil, fmt.Errorf("unterminated quote in command")
	}
	if escaped {
		return nil, fmt.Errorf("trailing escape in command")
	}

	flush()
	return segments, nil
}

// splitComment separates a command segment into its code part and the
// body of a trailing shell comment, if one exists. Only an unquoted
// "#" at the start of the segment or preceded by whitespace opens a
// comment, matching shell semantics.
func splitComment(text string) (code, comment string) {
	var (
		inSingle bool
		inDouble bool
		escaped  bool
	)

	runes := []rune(text)
	for i, r := range runes {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case r == '\\' && !inSingle:
			escaped = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case r == '#' && !inSingle && !inDouble:
			if i == 0 || runes[i-1] == ' ' || runes[i-1] == '\t' {
				return strings.TrimSpace(string(runes[:i])), strings.TrimSpace(string(runes[i+1:]))
			}
		}
	}

	return strings.TrimSpace(text), ""
}
