package store

import (
	"context"
	"testing"
	"time"

	"github.com/aurareader/aura-reader/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestNewStore(t *testing.T) {
	s, err := New(":memory:")
	require.NoError(t, err)
	require.NotNil(t, s)
	defer s.Close()
}

func TestStore_AddAndGetSubscription(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub := model.Subscription{
		ID:      "sub-1",
		URL:     "https://example.com/rss",
		Title:   "Example Feed",
		Favicon: strPtr("https://www.google.com/s2/favicons?domain=example.com&sz=64"),
	}

	added, err := s.AddSubscription(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, sub, added)

	got, err := s.GetSubscription(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, sub, *got)
}

func TestStore_AddRejectsDuplicateURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddSubscription(ctx, model.Subscription{ID: "a", URL: "https://example.com/rss", Title: "A"})
	require.NoError(t, err)

	_, err = s.AddSubscription(ctx, model.Subscription{ID: "b", URL: "https://example.com/rss", Title: "B"})
	assert.ErrorIs(t, err, ErrDuplicateURL)

	subs, err := s.ListSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestStore_AddValidates(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddSubscription(context.Background(), model.Subscription{ID: "a", URL: "not a url", Title: "A"})
	assert.Error(t, err)
}

func TestStore_ListSubscriptionsKeepsInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	subs, err := s.ListSubscriptions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)

	for _, sub := range []model.Subscription{
		{ID: "z", URL: "https://example1.com/rss", Title: "Feed 1"},
		{ID: "a", URL: "https://example2.com/rss", Title: "Feed 2"},
		{ID: "m", URL: "https://example3.com/rss", Title: "Feed 3"},
	} {
		_, err := s.AddSubscription(ctx, sub)
		require.NoError(t, err)
	}

	subs, err = s.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "z", subs[0].ID)
	assert.Equal(t, "a", subs[1].ID)
	assert.Equal(t, "m", subs[2].ID)
	assert.Nil(t, subs[0].Favicon)
}

func TestStore_UpdateSubscription(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddSubscription(ctx, model.Subscription{ID: "a", URL: "https://a.example/rss", Title: "A"})
	require.NoError(t, err)
	_, err = s.AddSubscription(ctx, model.Subscription{ID: "b", URL: "https://b.example/rss", Title: "B"})
	require.NoError(t, err)

	updated, err := s.UpdateSubscription(ctx, model.Subscription{ID: "a", URL: "https://a2.example/rss", Title: "A2"})
	require.NoError(t, err)
	assert.Equal(t, "A2", updated.Title)

	got, err := s.GetSubscription(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "https://a2.example/rss", got.URL)
	assert.Equal(t, "A2", got.Title)

	// Keeping its own URL is not a duplicate.
	_, err = s.UpdateSubscription(ctx, model.Subscription{ID: "a", URL: "https://a2.example/rss", Title: "A3"})
	require.NoError(t, err)

	_, err = s.UpdateSubscription(ctx, model.Subscription{ID: "a", URL: "https://b.example/rss", Title: "A"})
	assert.ErrorIs(t, err, ErrDuplicateURL)

	_, err = s.UpdateSubscription(ctx, model.Subscription{ID: "missing", URL: "https://c.example/rss", Title: "C"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RemoveSubscription(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddSubscription(ctx, model.Subscription{ID: "a", URL: "https://a.example/rss", Title: "A"})
	require.NoError(t, err)

	removed, err := s.RemoveSubscription(ctx, "a")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.GetSubscription(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound, "Should error when getting removed subscription")

	removed, err = s.RemoveSubscription(ctx, "a")
	require.NoError(t, err)
	assert.False(t, removed)

	// The URL is free again.
	_, err = s.AddSubscription(ctx, model.Subscription{ID: "b", URL: "https://a.example/rss", Title: "A"})
	require.NoError(t, err)
}

func TestStore_ReadState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, err := s.ReadArticleIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	marked, err := s.MarkRead(ctx, "x", "y", "", "x")
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	marked, err = s.MarkRead(ctx, "y", "z")
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	ids, err = s.ReadArticleIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y", "z"}, ids)

	cleared, err := s.ClearRead(ctx, "x", "nope")
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	cleared, err = s.ClearRead(ctx)
	require.NoError(t, err)
	assert.Zero(t, cleared)

	ids, err = s.ReadArticleIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"y", "z"}, ids)
}

func TestStore_PruneRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return old }
	_, err := s.MarkRead(ctx, "old")
	require.NoError(t, err)

	s.now = func() time.Time { return old.Add(60 * 24 * time.Hour) }
	_, err = s.MarkRead(ctx, "new")
	require.NoError(t, err)

	pruned, err := s.PruneRead(ctx, old.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	ids, err := s.ReadArticleIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
}
