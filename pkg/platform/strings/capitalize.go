package strings

import (
	"strings"
	"unicode"
)

// Capitalize trims surrounding whitespace and uppercases the first rune.
// Free-text names ("recebido por", "retirado por") are stored this way so
// listings render consistently no matter how the porter typed them.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
