// Package store provides SQLite persistence for subscriptions and read state.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aurareader/aura-reader/model"
	_ "modernc.org/sqlite"
)

var (
	ErrDuplicateURL = errors.New("subscription with this URL already exists")
	ErrNotFound     = errors.New("subscription not found")
)

// Store manages the SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Store with the given database path.
// Use ":memory:" for an in-memory database (useful for testing).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}

	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		url TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		favicon TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS read_articles (
		article_id TEXT PRIMARY KEY,
		read_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_read_articles_read_at ON read_articles(read_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ListSubscriptions returns all subscriptions in the order they were added.
func (s *Store) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, url, title, favicon FROM subscriptions ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []model.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// GetSubscription retrieves a subscription by ID.
func (s *Store) GetSubscription(ctx context.Context, id string) (*model.Subscription, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, url, title, favicon FROM subscriptions WHERE id = ?", id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// AddSubscription stores a new subscription. A subscription whose URL is
// already stored is rejected with ErrDuplicateURL.
func (s *Store) AddSubscription(ctx context.Context, sub model.Subscription) (model.Subscription, error) {
	if err := sub.Validate(); err != nil {
		return model.Subscription{}, err
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureURLFree(ctx, tx, sub.URL, ""); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO subscriptions (id, url, title, favicon, created_at) VALUES (?, ?, ?, ?, ?)",
			sub.ID, sub.URL, sub.Title, nullable(sub.Favicon), s.now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

// UpdateSubscription replaces the URL, title and favicon of an existing subscription.
func (s *Store) UpdateSubscription(ctx context.Context, sub model.Subscription) (model.Subscription, error) {
	if err := sub.Validate(); err != nil {
		return model.Subscription{}, err
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureURLFree(ctx, tx, sub.URL, sub.ID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx,
			"UPDATE subscriptions SET url = ?, title = ?, favicon = ? WHERE id = ?",
			sub.URL, sub.Title, nullable(sub.Favicon), sub.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

// RemoveSubscription deletes a subscription and reports whether it existed.
func (s *Store) RemoveSubscription(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// MarkRead records article IDs as read and returns how many were newly marked.
func (s *Store) MarkRead(ctx context.Context, articleIDs ...string) (int, error) {
	marked := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		now := s.now().Unix()
		for _, id := range articleIDs {
			if id == "" {
				continue
			}
			result, err := tx.ExecContext(ctx,
				"INSERT INTO read_articles (article_id, read_at) VALUES (?, ?) ON CONFLICT(article_id) DO NOTHING",
				id, now,
			)
			if err != nil {
				return fmt.Errorf("failed to mark article read: %w", err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get affected rows: %w", err)
			}
			if n > 0 {
				marked++
			}
		}
		return nil
	})
	return marked, err
}

// ClearRead forgets the read state of the given article IDs.
func (s *Store) ClearRead(ctx context.Context, articleIDs ...string) (int, error) {
	if len(articleIDs) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(articleIDs)), ",")
	args := make([]interface{}, len(articleIDs))
	for i, id := range articleIDs {
		args[i] = id
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM read_articles WHERE article_id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear read articles: %w", err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// ReadArticleIDs returns every article ID marked as read.
func (s *Store) ReadArticleIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT article_id FROM read_articles ORDER BY read_at, article_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query read articles: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan read article: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PruneRead forgets read state recorded before cutoff.
func (s *Store) PruneRead(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM read_articles WHERE read_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune read articles: %w", err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func ensureURLFree(ctx context.Context, tx *sql.Tx, url, exceptID string) error {
	var existing string
	err := tx.QueryRowContext(ctx, "SELECT id FROM subscriptions WHERE url = ? AND id != ?", url, exceptID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check subscription URL: %w", err)
	}
	return ErrDuplicateURL
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row scanner) (model.Subscription, error) {
	var sub model.Subscription
	var favicon sql.NullString
	if err := row.Scan(&sub.ID, &sub.URL, &sub.Title, &favicon); err != nil {
		return model.Subscription{}, err
	}
	if favicon.Valid {
		sub.Favicon = &favicon.String
	}
	return sub, nil
}

// Helper to store an optional string as NULL
func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
