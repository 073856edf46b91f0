package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/aurareader/aura-reader/model"
)

// TimestampLayout is the ISO-8601 encoding used for Article.PubDate.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// dateFields are consulted in order; the first populated one is used.
var dateFields = []string{"pubDate", "published", "updated", "dc:date"}

var contentFields = []string{"content:encoded", "content", "description", "summary"}

// RejectedItemError reports an item that lacks a required field.
type RejectedItemError struct {
	Missing []string
}

func (e *RejectedItemError) Error() string {
	return "item rejected: missing " + strings.Join(e.Missing, ", ")
}

// DateSource records how an article's publish timestamp was obtained.
type DateSource int

const (
	DateParsed DateSource = iota
	DateMissing
	DateUnparsable
)

// NormalizeItem maps one raw item or entry onto an Article. fetchedAt is
// substituted when the item has no usable publish date. Items without an
// identifier, title or link yield a *RejectedItemError.
func NormalizeItem(item *Node, fetchedAt time.Time) (model.Article, DateSource, error) {
	title := Text(item.Child("title"))
	link := resolveLink(item)

	id := Text(item.Child("guid"))
	if id == "" {
		id = Text(item.Child("id"))
	}
	if id == "" {
		id = link
	}
	if id == "" {
		id = title
	}

	var missing []string
	if id == "" {
		missing = append(missing, "id")
	}
	if title == "" {
		missing = append(missing, "title")
	}
	if link == "" {
		missing = append(missing, "link")
	}
	if len(missing) > 0 {
		return model.Article{}, DateMissing, &RejectedItemError{Missing: missing}
	}

	pubDate, source := publishDate(item, fetchedAt)
	content := firstText(item, contentFields...)

	return model.Article{
		ID:      id,
		Link:    link,
		Title:   title,
		PubDate: pubDate,
		Author:  author(item),
		Content: content,
		Snippet: Snippet(content, DefaultSnippetLength),
	}, source, nil
}

// resolveLink prefers an href attribute, then link text, then an Atom id.
func resolveLink(n *Node) string {
	if link := linkOf(n); link != "" {
		return link
	}
	return Text(n.Child("id"))
}

func linkOf(n *Node) string {
	links := n.All("link")
	if href := preferredHref(links); href != "" {
		return href
	}
	for _, l := range links {
		if t := Text(l); t != "" {
			return t
		}
	}
	return ""
}

// preferredHref picks the alternate (or rel-less) link, else the first href.
func preferredHref(links []*Node) string {
	var first string
	for _, l := range links {
		href := strings.TrimSpace(l.Attr("href"))
		if href == "" {
			continue
		}
		if rel := l.Attr("rel"); rel == "" || rel == "alternate" {
			return href
		}
		if first == "" {
			first = href
		}
	}
	return first
}

func author(item *Node) string {
	if a := Text(item.Child("dc:creator")); a != "" {
		return a
	}
	return Text(item.Child("author").Child("name"))
}

func publishDate(item *Node, fetchedAt time.Time) (string, DateSource) {
	raw := firstText(item, dateFields...)
	if raw == "" {
		return FormatTimestamp(fetchedAt), DateMissing
	}
	t, err := ParseDate(raw)
	if err != nil {
		return FormatTimestamp(fetchedAt), DateUnparsable
	}
	return FormatTimestamp(t), DateParsed
}

// FormatTimestamp encodes t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// rfc822Zones are the named zones RFC 822 allows in RSS pubDate, in
// seconds east of UTC. time.Parse only knows the offset of an abbreviation
// when it names the local zone, so these are applied explicitly.
var rfc822Zones = map[string]int{
	"UT":  0,
	"GMT": 0,
	"Z":   0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

// ParseDate parses the date formats found in feeds. Timestamps without a
// zone are read as UTC.
func ParseDate(s string) (t time.Time, err error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return anchorZone(t), nil
		}
	}

	defer func() {
		if r := recover(); r != nil {
			t, err = time.Time{}, fmt.Errorf("unrecognized date %q: %v", s, r)
		}
	}()
	t, err = dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", s, err)
	}
	return anchorZone(t), nil
}

// anchorZone reinterprets the wall clock of t in its named RFC 822 zone
// when the parser left that zone without its real offset.
func anchorZone(t time.Time) time.Time {
	name, offset := t.Zone()
	want, ok := rfc822Zones[strings.ToUpper(name)]
	if !ok || offset == want {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(),
		t.Nanosecond(), time.FixedZone(name, want))
}
