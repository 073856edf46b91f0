package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseItem(t *testing.T, doc string) *Node {
	t.Helper()
	root := mustParse(t, doc)
	require.Len(t, root.Children, 1)
	return root.Children[0]
}

func TestNormalizeItem_Identifier(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "link when guid absent",
			doc:  `<item><title>T</title><link>http://x/1</link></item>`,
			want: "http://x/1",
		},
		{
			name: "guid over link",
			doc:  `<item><guid>g1</guid><title>T</title><link>http://x/1</link></item>`,
			want: "g1",
		},
		{
			name: "guid with attributes",
			doc:  `<item><guid isPermaLink="true">http://x/g</guid><title>T</title><link>http://x/1</link></item>`,
			want: "http://x/g",
		},
		{
			name: "atom id",
			doc:  `<entry><id>tag:x,2024:1</id><title>T</title><link href="http://x/1"/></entry>`,
			want: "tag:x,2024:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, _, err := NormalizeItem(parseItem(t, tt.doc), fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, article.ID)
		})
	}
}

func TestNormalizeItem_Link(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "href attribute",
			doc:  `<entry><title>T</title><link href="http://x/a"/></entry>`,
			want: "http://x/a",
		},
		{
			name: "alternate wins over other rels",
			doc:  `<entry><title>T</title><link rel="edit" href="http://x/edit"/><link rel="alternate" href="http://x/alt"/></entry>`,
			want: "http://x/alt",
		},
		{
			name: "first href when no alternate",
			doc:  `<entry><title>T</title><link rel="edit" href="http://x/edit"/><link rel="self" href="http://x/self"/></entry>`,
			want: "http://x/edit",
		},
		{
			name: "text content",
			doc:  `<item><title>T</title><link> http://x/text </link></item>`,
			want: "http://x/text",
		},
		{
			name: "id fallback",
			doc:  `<entry><title>T</title><id>http://x/id</id></entry>`,
			want: "http://x/id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, _, err := NormalizeItem(parseItem(t, tt.doc), fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, article.Link)
		})
	}
}

func TestNormalizeItem_Rejected(t *testing.T) {
	_, _, err := NormalizeItem(parseItem(t, `<item><description>orphan</description></item>`), fixedNow)
	require.Error(t, err)

	var rejected *RejectedItemError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, []string{"id", "title", "link"}, rejected.Missing)

	_, _, err = NormalizeItem(parseItem(t, `<item><title>only a title</title></item>`), fixedNow)
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, []string{"link"}, rejected.Missing)

	_, _, err = NormalizeItem(parseItem(t, `<item><link>http://x/only</link></item>`), fixedNow)
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, []string{"title"}, rejected.Missing)
}

func TestNormalizeItem_PublishDate(t *testing.T) {
	tests := []struct {
		name   string
		fields string
		want   string
		source DateSource
	}{
		{
			name:   "pubDate",
			fields: `<pubDate>Wed, 01 May 2024 12:00:00 GMT</pubDate>`,
			want:   "2024-05-01T12:00:00.000Z",
			source: DateParsed,
		},
		{
			name:   "updated when pubDate absent",
			fields: `<updated>2024-03-01T10:00:00Z</updated>`,
			want:   "2024-03-01T10:00:00.000Z",
			source: DateParsed,
		},
		{
			name:   "published before updated",
			fields: `<updated>2024-03-02T00:00:00Z</updated><published>2024-03-01T00:00:00+01:00</published>`,
			want:   "2024-02-29T23:00:00.000Z",
			source: DateParsed,
		},
		{
			name:   "dc:date",
			fields: `<dc:date>2024-01-15T08:00:00-05:00</dc:date>`,
			want:   "2024-01-15T13:00:00.000Z",
			source: DateParsed,
		},
		{
			name:   "absent",
			fields: ``,
			want:   "2024-05-06T07:08:09.000Z",
			source: DateMissing,
		},
		{
			name:   "unparsable",
			fields: `<pubDate>not a date</pubDate><updated>2024-03-01T10:00:00Z</updated>`,
			want:   "2024-05-06T07:08:09.000Z",
			source: DateUnparsable,
		},
		{
			name:   "empty element skipped",
			fields: `<pubDate></pubDate><updated>2024-03-01T10:00:00Z</updated>`,
			want:   "2024-03-01T10:00:00.000Z",
			source: DateParsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `<item><title>T</title><link>http://x/1</link>` + tt.fields + `</item>`
			article, source, err := NormalizeItem(parseItem(t, doc), fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, article.PubDate)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestNormalizeItem_MissingDateUsesNow(t *testing.T) {
	before := time.Now()
	article, _, err := NormalizeItem(parseItem(t, `<item><title>T</title><link>http://x/1</link></item>`), time.Now())
	require.NoError(t, err)

	got, err := time.Parse(TimestampLayout, article.PubDate)
	require.NoError(t, err)
	assert.WithinDuration(t, before, got, 5*time.Second)
}

func TestNormalizeItem_AuthorAndContent(t *testing.T) {
	article, _, err := NormalizeItem(parseItem(t, `<entry><title>T</title><link href="http://x/1"/>
<author><name>Ada</name></author><summary>short</summary><content>long</content></entry>`), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Ada", article.Author)
	assert.Equal(t, "long", article.Content)

	article, _, err = NormalizeItem(parseItem(t, `<item><title>T</title><link>http://x/1</link>
<author>someone@example.com</author><dc:creator>Grace</dc:creator>
<description>plain</description><content:encoded>&lt;i&gt;rich&lt;/i&gt;</content:encoded></item>`), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Grace", article.Author)
	assert.Equal(t, "<i>rich</i>", article.Content)
	assert.Equal(t, "rich", article.Snippet)

	article, _, err = NormalizeItem(parseItem(t, `<item><title>T</title><link>http://x/1</link><author>someone@example.com</author></item>`), fixedNow)
	require.NoError(t, err)
	assert.Empty(t, article.Author)
	assert.Empty(t, article.Content)
}

func TestParseDate(t *testing.T) {
	valid := map[string]string{
		"Mon, 02 Jan 2006 15:04:05 -0700": "2006-01-02T22:04:05.000Z",
		"Mon, 2 Jan 2006 15:04:05 +0000":  "2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05.123Z":        "2006-01-02T15:04:05.123Z",
		"2006-01-02 15:04:05":             "2006-01-02T15:04:05.000Z",
		"2006-01-02":                      "2006-01-02T00:00:00.000Z",
		"Mon, 02 Jan 2006 15:04:05 GMT":   "2006-01-02T15:04:05.000Z",
		"Mon, 02 Jan 2006 15:04:05 EST":   "2006-01-02T20:04:05.000Z",
		"Mon, 02 Jan 2006 15:04:05 EDT":   "2006-01-02T19:04:05.000Z",
		"Mon, 02 Jan 2006 15:04:05 CST":   "2006-01-02T21:04:05.000Z",
		"Mon, 02 Jan 2006 15:04:05 CDT":   "2006-01-02T20:04:05.000Z",
		"Mon, 02 Jan 2006 15:04:05 MST":   "2006-01-02T22:04:05.000Z",
		"Mon, 02 Jan 2006 15:04:05 MDT":   "2006-01-02T21:04:05.000Z",
		"Mon, 02 Jan 2006 15:04:05 PST":   "2006-01-02T23:04:05.000Z",
		"Mon, 02 Jan 2006 15:04:05 PDT":   "2006-01-02T22:04:05.000Z",
		"Mon, 2 Jan 2006 15:04:05 PDT":    "2006-01-02T22:04:05.000Z",
	}
	for in, want := range valid {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, FormatTimestamp(got), in)
	}

	_, err := ParseDate("not a date")
	assert.Error(t, err)
}
