package feed

import (
	"context"
	"log/slog"

	"github.com/aurareader/aura-reader/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency caps parallel fetches during a refresh of all subscriptions.
const DefaultConcurrency = 50

// Source produces FeedData for a feed URL.
type Source interface {
	Fetch(ctx context.Context, url string) (*model.FeedData, error)
}

// Refresher fetches many subscriptions concurrently. A failing subscription
// never cancels or affects the others.
type Refresher struct {
	source      Source
	concurrency int
	logger      *slog.Logger
}

// NewRefresher creates a Refresher. A non-positive concurrency means
// DefaultConcurrency.
func NewRefresher(source Source, concurrency int, logger *slog.Logger) *Refresher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{source: source, concurrency: concurrency, logger: logger}
}

// RefreshAll fetches every subscription and returns one result per
// subscription, in the order given.
func (r *Refresher) RefreshAll(ctx context.Context, subs []model.Subscription) []model.RefreshResult {
	results := make([]model.RefreshResult, len(subs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, sub := range subs {
		g.Go(func() error {
			results[i] = r.refresh(ctx, sub)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Refresher) refresh(ctx context.Context, sub model.Subscription) model.RefreshResult {
	result := model.RefreshResult{SubscriptionID: sub.ID, URL: sub.URL}

	data, err := r.source.Fetch(ctx, sub.URL)
	if err != nil {
		r.logger.Warn("refresh failed", "subscription", sub.ID, "url", sub.URL, "error", err)
		result.Error = err.Error()
		return result
	}

	r.logger.Info("refreshed subscription", "subscription", sub.ID, "url", sub.URL, "articles", len(data.Items))
	result.Success = true
	result.Data = data
	return result
}
