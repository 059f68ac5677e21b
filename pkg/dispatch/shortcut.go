package dispatch

import (
	"strings"
	"unicode"
)

// Shortcut derives the alias of a wire token: '*', ':' and whitespace are
// dropped and '?' becomes 'Q'.
func Shortcut(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		switch {
		case r == '*', r == ':', unicode.IsSpace(r):
		case r == '?':
			b.WriteByte('Q')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AllToken selects the whole vocabulary in an allow-list.
const AllToken = "ALL"

// ParseAllowList splits a space separated allow-list. all is true when the
// list is exactly AllToken.
func ParseAllowList(s string) (tokens []string, all bool) {
	fields := strings.Fields(s)
	if len(fields) == 1 && fields[0] == AllToken {
		return nil, true
	}
	return fields, false
}
