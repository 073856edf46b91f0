// Package render prepares article content for display.
package render

import (
	"github.com/aurareader/aura-reader/model"
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans untrusted article HTML. It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a Sanitizer using bluemonday's user-generated-content
// policy, with links opened in a new tab without a referrer.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &Sanitizer{policy: p}
}

// Sanitize returns html with unsafe elements and attributes removed.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}

// Feed returns a copy of data whose article content has been sanitized.
// Snippets are already plain text and are left as they are.
func (s *Sanitizer) Feed(data *model.FeedData) *model.FeedData {
	out := *data
	out.Items = make([]model.Article, len(data.Items))
	for i, a := range data.Items {
		a.Content = s.Sanitize(a.Content)
		out.Items[i] = a
	}
	return &out
}
