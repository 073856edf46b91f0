// Package feed fetches RSS 2.0, Atom and RDF (RSS 1.0) documents and
// normalizes them into model.FeedData.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aurareader/aura-reader/model"
)

// UserAgent is sent with every outbound feed request.
const UserAgent = "AuraReader/1.0"

const (
	DefaultTimeout = 20 * time.Second
	maxBodySize    = 16 << 20
)

var (
	ErrTransport    = errors.New("failed to fetch feed")
	ErrHTTPStatus   = errors.New("unexpected HTTP status")
	ErrInvalidFeed  = errors.New("invalid RSS/Atom feed structure")
	ErrMissingTitle = errors.New("feed title not found")
	ErrFeedTooLarge = errors.New("feed too large")
)

// StatusError is returned when the feed server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "failed to fetch feed: " + e.Status
}

func (e *StatusError) Unwrap() error { return ErrHTTPStatus }

// Fetcher handles fetching and normalizing feeds. It holds no per-request
// state and is safe for concurrent use.
type Fetcher struct {
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
	maxBody int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client = &http.Client{Timeout: d} }
}

// WithLogger sets the logger used for dropped items and date fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithClock overrides the clock used for missing publish dates.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithMaxBodySize caps the size of a fetched feed document.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) { f.maxBody = n }
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
		now:     time.Now,
		maxBody: maxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.maxBody <= 0 {
		f.maxBody = maxBodySize
	}
	return f
}

// Fetch retrieves and normalizes the feed at url. An empty channel title is
// tolerated.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*model.FeedData, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	content, err := io.ReadAll(io.LimitReader(body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %w", ErrTransport, url, err)
	}
	if int64(len(content)) > f.maxBody {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFeedTooLarge, url, f.maxBody)
	}

	return f.normalize(bytes.NewReader(content), url)
}

// Validate fetches url like Fetch but also requires a channel title, which
// becomes the display name of a new subscription.
func (f *Fetcher) Validate(ctx context.Context, url string) (*model.FeedData, error) {
	data, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if data.Title == "" {
		return nil, ErrMissingTitle
	}
	return data, nil
}

// Parse normalizes feed content from a string.
func (f *Fetcher) Parse(content string) (*model.FeedData, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: feed content is empty", ErrInvalidFeed)
	}
	return f.normalize(bytes.NewReader([]byte(content)), "")
}

func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %w", ErrTransport, url, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/rdf+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %w", ErrTransport, url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp.Body, nil
}

func (f *Fetcher) normalize(r io.Reader, url string) (*model.FeedData, error) {
	doc, err := ParseXML(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFeed, err)
	}

	resolved, err := Resolve(doc)
	if err != nil {
		return nil, err
	}

	return f.convert(resolved, url), nil
}

// convert assembles FeedData from a resolved document.
func (f *Fetcher) convert(r *Resolved, url string) *model.FeedData {
	fetchedAt := f.now()

	data := &model.FeedData{
		Title:       Text(r.Channel.Child("title")),
		Description: firstText(r.Channel, "description", "subtitle"),
		Link:        linkOf(r.Channel),
		Items:       make([]model.Article, 0, len(r.Items)),
	}

	for i, item := range r.Items {
		article, source, err := NormalizeItem(item, fetchedAt)
		if err != nil {
			f.logger.Debug("dropping feed item", "url", url, "index", i, "reason", err)
			continue
		}
		switch source {
		case DateMissing:
			f.logger.Debug("item has no publish date, using fetch time", "url", url, "id", article.ID)
		case DateUnparsable:
			f.logger.Debug("item publish date unparsable, using fetch time", "url", url, "id", article.ID)
		}
		data.Items = append(data.Items, article)
	}

	f.logger.Debug("feed normalized", "url", url, "dialect", r.Dialect.String(),
		"items", len(r.Items), "accepted", len(data.Items))
	return data
}
