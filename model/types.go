// Package model defines the core data structures for aura-reader.
package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// FaviconService is the favicon lookup service used for new and edited subscriptions.
const FaviconService = "https://www.google.com/s2/favicons"

// Subscription represents a feed the user follows.
type Subscription struct {
	ID      string  `json:"id"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Favicon *string `json:"favicon"`
}

// Validate checks if the subscription has required fields.
func (s *Subscription) Validate() error {
	if s.ID == "" {
		return errors.New("subscription ID is required")
	}
	if s.Title == "" {
		return errors.New("subscription title is required")
	}
	return ValidateFeedURL(s.URL)
}

// FaviconFor returns the favicon service URL for the host of feedURL.
func FaviconFor(feedURL string) (string, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return "", fmt.Errorf("invalid feed URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid feed URL: missing host in %q", feedURL)
	}

	q := url.Values{}
	q.Set("domain", u.Hostname())
	q.Set("sz", "64")
	return FaviconService + "?" + q.Encode(), nil
}

// ValidateFeedURL checks that raw is an absolute http(s) URL.
func ValidateFeedURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("feed URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid feed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid feed URL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid feed URL: missing host in %q", raw)
	}
	return nil
}

// Article is one normalized item of a feed.
type Article struct {
	ID      string `json:"id"`
	Link    string `json:"link"`
	Title   string `json:"title"`
	PubDate string `json:"pubDate"`
	Author  string `json:"author,omitempty"`
	Content string `json:"content"`
	Snippet string `json:"snippet"`
}

// FeedData is the channel metadata and articles produced by one fetch.
// Items keep the order in which they appear in the source document.
type FeedData struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Items       []Article `json:"items"`
}

// RefreshResult reports the outcome of refreshing one subscription.
type RefreshResult struct {
	SubscriptionID string    `json:"subscriptionId"`
	URL            string    `json:"url"`
	Success        bool      `json:"success"`
	Data           *FeedData `json:"data,omitempty"`
	Error          string    `json:"error,omitempty"`
}
