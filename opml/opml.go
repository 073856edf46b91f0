// Package opml provides OPML import and export of subscriptions.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aurareader/aura-reader/model"
)

// OPML represents the root OPML structure.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head contains metadata about the OPML document.
type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// Body contains the outline elements.
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline represents a feed or a folder of feeds.
type Outline struct {
	Text     string    `xml:"text,attr,omitempty"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLUrl   string    `xml:"xmlUrl,attr,omitempty"`
	HTMLUrl  string    `xml:"htmlUrl,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// Parse reads an OPML document and returns one subscription per feed
// outline, folders flattened, in document order. IDs are left empty.
func Parse(r io.Reader) ([]model.Subscription, error) {
	var doc OPML
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	return extractSubscriptions(doc.Body.Outlines), nil
}

func extractSubscriptions(outlines []Outline) []model.Subscription {
	subs := []model.Subscription{}

	for _, outline := range outlines {
		if url := strings.TrimSpace(outline.XMLUrl); url != "" {
			title := outline.Title
			if title == "" {
				title = outline.Text
			}
			if title == "" {
				title = url
			}
			subs = append(subs, model.Subscription{URL: url, Title: title})
		}

		if len(outline.Outlines) > 0 {
			subs = append(subs, extractSubscriptions(outline.Outlines)...)
		}
	}

	return subs
}

// Generate writes subscriptions as an OPML 2.0 document.
func Generate(w io.Writer, subs []model.Subscription) error {
	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:       "aura-reader subscriptions",
			DateCreated: time.Now().Format(time.RFC1123),
		},
		Body: Body{
			Outlines: make([]Outline, 0, len(subs)),
		},
	}

	for _, sub := range subs {
		doc.Body.Outlines = append(doc.Body.Outlines, Outline{
			Type:   "rss",
			Text:   sub.Title,
			Title:  sub.Title,
			XMLUrl: sub.URL,
		})
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode OPML: %w", err)
	}

	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write final newline: %w", err)
	}

	return nil
}
