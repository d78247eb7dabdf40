package search

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes text before it is embedded.
//
// The result is lowercase, holds only ASCII letters, digits and single
// spaces, and has no leading or trailing space. Any other rune is removed
// without leaving a gap, so "don't" becomes "dont". Whitespace-only input
// yields "". Query and candidate text go through the same function.
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case isASCIIAlnum(r):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
