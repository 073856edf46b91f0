package feed

import (
	"regexp"
	"strings"
)

// DefaultSnippetLength is the snippet length used for normalized articles.
const DefaultSnippetLength = 150

const ellipsis = "..."

var (
	markupPattern     = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
)

// Snippet strips markup from content, collapses whitespace, and truncates
// the result to maxLength characters followed by "...". A non-positive
// maxLength means DefaultSnippetLength.
func Snippet(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultSnippetLength
	}

	plain := markupPattern.ReplaceAllString(content, "")
	plain = strings.TrimSpace(whitespacePattern.ReplaceAllString(plain, " "))

	runes := []rune(plain)
	if len(runes) <= maxLength {
		return plain
	}
	return string(runes[:maxLength]) + ellipsis
}
