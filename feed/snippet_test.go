package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnippet(t *testing.T) {
	long := strings.Repeat("a", 300)

	tests := []struct {
		name      string
		content   string
		maxLength int
		want      string
	}{
		{"strips tags and collapses whitespace", "<p>Hello   world</p>", 150, "Hello world"},
		{"trims", "  \n\t<div> x </div>\n ", 150, "x"},
		{"truncates", long, 150, strings.Repeat("a", 150) + "..."},
		{"exactly max length", strings.Repeat("b", 150), 150, strings.Repeat("b", 150)},
		{"default length", long, 0, strings.Repeat("a", DefaultSnippetLength) + "..."},
		{"counts characters not bytes", "ééééé", 3, "ééé..."},
		{"non-breaking spaces collapse", "a\u00a0 b", 150, "a b"},
		{"vertical tab collapses", "a\v\vb", 150, "a b"},
		{"line and paragraph separators collapse", "a\u2028b\u2029 c", 150, "a b c"},
		{"empty", "", 150, ""},
		{"tags spanning lines", "<a\nhref=\"x\">link</a> text", 150, "link text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Snippet(tt.content, tt.maxLength))
		})
	}
}
