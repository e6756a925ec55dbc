// Package textx cleans text that arrives from citizens before it is shown to
// an operator, either in the terminal or through the gateway.
package textx

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain strips all markup from s and decodes the entities bluemonday leaves
// behind, so "<b>a & b</b>" becomes "a & b".
func Plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Truncate shortens s to at most n runes, appending "…" when it cuts.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
