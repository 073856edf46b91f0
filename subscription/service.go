// Package subscription implements the add, edit, remove and refresh flows
// on top of the feed fetcher and a subscription repository.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aurareader/aura-reader/feed"
	"github.com/aurareader/aura-reader/model"
	"github.com/google/uuid"
)

// ErrInvalidInput marks caller mistakes such as a missing URL or title.
var ErrInvalidInput = errors.New("invalid input")

// Repository persists subscriptions.
type Repository interface {
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*model.Subscription, error)
	AddSubscription(ctx context.Context, sub model.Subscription) (model.Subscription, error)
	UpdateSubscription(ctx context.Context, sub model.Subscription) (model.Subscription, error)
	RemoveSubscription(ctx context.Context, id string) (bool, error)
}

// Fetcher fetches and normalizes feeds.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.FeedData, error)
	Validate(ctx context.Context, url string) (*model.FeedData, error)
}

// Service coordinates subscription changes with feed fetching.
type Service struct {
	repo      Repository
	fetcher   Fetcher
	refresher *feed.Refresher
	logger    *slog.Logger
	newID     func() string
}

// NewService creates a Service. concurrency caps parallel fetches in RefreshAll.
func NewService(repo Repository, fetcher Fetcher, concurrency int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		fetcher:   fetcher,
		refresher: feed.NewRefresher(fetcher, concurrency, logger),
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// List returns all subscriptions.
func (s *Service) List(ctx context.Context) ([]model.Subscription, error) {
	return s.repo.ListSubscriptions(ctx)
}

// Add validates the feed at url and subscribes to it under the feed's own title.
func (s *Service) Add(ctx context.Context, url string) (model.Subscription, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return model.Subscription{}, fmt.Errorf("%w: URL is required", ErrInvalidInput)
	}
	if err := model.ValidateFeedURL(url); err != nil {
		return model.Subscription{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	data, err := s.fetcher.Validate(ctx, url)
	if err != nil {
		s.logger.Error("failed to add subscription", "url", url, "error", err)
		return model.Subscription{}, err
	}

	favicon, err := model.FaviconFor(url)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	sub := model.Subscription{
		ID:      s.newID(),
		URL:     url,
		Title:   data.Title,
		Favicon: &favicon,
	}
	added, err := s.repo.AddSubscription(ctx, sub)
	if err != nil {
		return model.Subscription{}, err
	}

	s.logger.Info("subscription added", "id", added.ID, "url", added.URL, "title", added.Title)
	return added, nil
}

// Update changes the URL and title of an existing subscription.
func (s *Service) Update(ctx context.Context, id, url, title string) (model.Subscription, error) {
	if id == "" {
		return model.Subscription{}, fmt.Errorf("%w: ID is required", ErrInvalidInput)
	}
	url, title = strings.TrimSpace(url), strings.TrimSpace(title)
	if url == "" || title == "" {
		return model.Subscription{}, fmt.Errorf("%w: URL and title are required", ErrInvalidInput)
	}
	if err := model.ValidateFeedURL(url); err != nil {
		return model.Subscription{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	existing, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return model.Subscription{}, err
	}

	favicon, err := model.FaviconFor(url)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	updated := *existing
	updated.URL = url
	updated.Title = title
	updated.Favicon = &favicon

	result, err := s.repo.UpdateSubscription(ctx, updated)
	if err != nil {
		return model.Subscription{}, err
	}
	s.logger.Info("subscription updated", "id", id, "url", url)
	return result, nil
}

// Remove unsubscribes and reports whether the subscription existed.
func (s *Service) Remove(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%w: ID is required", ErrInvalidInput)
	}
	removed, err := s.repo.RemoveSubscription(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info("subscription removed", "id", id)
	}
	return removed, nil
}

// Refresh fetches the articles of one subscription.
func (s *Service) Refresh(ctx context.Context, id string) (*model.FeedData, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.fetcher.Fetch(ctx, sub.URL)
}

// RefreshAll fetches every subscription concurrently. Each subscription gets
// its own result; one failure does not affect the others.
func (s *Service) RefreshAll(ctx context.Context) ([]model.RefreshResult, error) {
	subs, err := s.repo.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	return s.refresher.RefreshAll(ctx, subs), nil
}

// ImportReport summarizes an import of externally listed subscriptions.
type ImportReport struct {
	Imported []model.Subscription `json:"imported"`
	Skipped  int                  `json:"skipped"`
	Total    int                  `json:"total"`
	Errors   []string             `json:"errors"`
}

// Import stores subscriptions read from an outline file without fetching
// them. Entries with an invalid or already subscribed URL are skipped.
func (s *Service) Import(ctx context.Context, subs []model.Subscription) (ImportReport, error) {
	report := ImportReport{Total: len(subs), Imported: []model.Subscription{}, Errors: []string{}}

	for _, sub := range subs {
		favicon, err := model.FaviconFor(sub.URL)
		if err == nil {
			sub.Favicon = &favicon
		}
		sub.ID = s.newID()

		added, err := s.repo.AddSubscription(ctx, sub)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", sub.URL, err))
			continue
		}
		report.Imported = append(report.Imported, added)
	}

	s.logger.Info("subscriptions imported", "imported", len(report.Imported), "skipped", report.Skipped)
	return report, nil
}
