package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aurareader/aura-reader/config"
	"github.com/aurareader/aura-reader/feed"
	"github.com/aurareader/aura-reader/opml"
	"github.com/aurareader/aura-reader/render"
	"github.com/aurareader/aura-reader/server"
	"github.com/aurareader/aura-reader/store"
	"github.com/aurareader/aura-reader/subscription"
	"github.com/urfave/cli/v2"
)

// env bundles the collaborators a command needs.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *store.Store
	fetcher *feed.Fetcher
	subs    *subscription.Service
}

func (e *env) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	cfg.DBPath = c.String("db")
	cfg.Timeout = c.Duration("timeout")
	cfg.Concurrency = c.Int("concurrency")
	cfg.LogLevel = c.String("log-level")
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	return cfg, cfg.Validate()
}

// newEnv builds the fetcher and, when withStore is set, opens the database.
func newEnv(c *cli.Context, withStore bool) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), ExitUsageError)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	e := &env{
		cfg:     cfg,
		logger:  logger,
		fetcher: feed.NewFetcher(feed.WithTimeout(cfg.Timeout), feed.WithLogger(logger)),
	}
	if !withStore {
		return e, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, cli.Exit(fmt.Sprintf("failed to create database directory: %v", err), ExitDataError)
	}
	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("failed to open database: %v", err), ExitDataError)
	}
	e.store = s
	e.subs = subscription.NewService(s, e.fetcher, cfg.Concurrency, logger)
	return e, nil
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// exitFor picks the exit code for a failed operation.
func exitFor(prefix string, err error) error {
	code := ExitDataError
	if errors.Is(err, subscription.ErrInvalidInput) {
		code = ExitUsageError
	}
	return cli.Exit(fmt.Sprintf("%s: %v", prefix, err), code)
}

func serve(c *cli.Context) error {
	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := server.New(e.subs, e.fetcher, e.store, e.logger)
	if err := api.ListenAndServe(ctx, e.cfg.Addr); err != nil {
		return cli.Exit(fmt.Sprintf("server failed: %v", err), ExitGeneralError)
	}
	return nil
}

func addSubscription(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: aura-reader add <url>", ExitUsageError)
	}

	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	sub, err := e.subs.Add(c.Context, c.Args().Get(0))
	if err != nil {
		return exitFor("Failed to add feed", err)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
		"data":    sub,
	})
}

func listSubscriptions(c *cli.Context) error {
	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	subs, err := e.subs.List(c.Context)
	if err != nil {
		return exitFor("Failed to get subscriptions", err)
	}
	return outputJSON(subs)
}

func editSubscription(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: aura-reader edit <subscription-id> --url <url> --title <title>", ExitUsageError)
	}
	id := c.Args().Get(0)

	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	existing, err := e.store.GetSubscription(c.Context, id)
	if err != nil {
		return exitFor("Failed to get subscription", err)
	}

	url, title := existing.URL, existing.Title
	if c.IsSet("url") {
		url = c.String("url")
	}
	if c.IsSet("title") {
		title = c.String("title")
	}

	sub, err := e.subs.Update(c.Context, id, url, title)
	if err != nil {
		return exitFor("Failed to update subscription", err)
	}
	return outputJSON(map[string]interface{}{
		"success": true,
		"data":    sub,
	})
}

func removeSubscription(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: aura-reader remove <subscription-id>", ExitUsageError)
	}
	id := c.Args().Get(0)

	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	removed, err := e.subs.Remove(c.Context, id)
	if err != nil {
		return exitFor("Failed to remove subscription", err)
	}
	if !removed {
		return cli.Exit("Subscription not found", ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"id": id, "deleted": true},
	})
}

func fetchFeed(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: aura-reader fetch <url>", ExitUsageError)
	}

	e, err := newEnv(c, false)
	if err != nil {
		return err
	}

	data, err := e.fetcher.Fetch(c.Context, c.Args().Get(0))
	if err != nil {
		return exitFor("Failed to fetch feed", err)
	}
	if c.Bool("sanitize") {
		data = render.NewSanitizer().Feed(data)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func refresh(c *cli.Context) error {
	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	if id := c.String("id"); id != "" {
		data, err := e.subs.Refresh(c.Context, id)
		if err != nil {
			return exitFor("Failed to refresh subscription", err)
		}
		return outputJSON(map[string]interface{}{
			"success": true,
			"data":    data,
		})
	}

	results, err := e.subs.RefreshAll(c.Context)
	if err != nil {
		return exitFor("Failed to refresh subscriptions", err)
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	return outputJSON(map[string]interface{}{
		"refreshed": len(results) - failed,
		"failed":    failed,
		"results":   results,
	})
}

func markRead(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: aura-reader mark-read <article-id>...", ExitUsageError)
	}

	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	marked, err := e.store.MarkRead(c.Context, c.Args().Slice()...)
	if err != nil {
		return exitFor("Failed to mark articles read", err)
	}
	return outputJSON(map[string]interface{}{
		"marked_read": marked,
	})
}

func markUnread(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: aura-reader mark-unread <article-id>...", ExitUsageError)
	}

	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	cleared, err := e.store.ClearRead(c.Context, c.Args().Slice()...)
	if err != nil {
		return exitFor("Failed to mark articles unread", err)
	}
	return outputJSON(map[string]interface{}{
		"marked_unread": cleared,
	})
}

func listRead(c *cli.Context) error {
	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	ids, err := e.store.ReadArticleIDs(c.Context)
	if err != nil {
		return exitFor("Failed to get read articles", err)
	}
	return outputJSON(ids)
}

func pruneRead(c *cli.Context) error {
	cutoff, err := store.Cutoff(c.String("older-than"), time.Now())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid --older-than: %v", err), ExitUsageError)
	}

	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	pruned, err := e.store.PruneRead(c.Context, cutoff)
	if err != nil {
		return exitFor("Failed to prune read articles", err)
	}
	return outputJSON(map[string]interface{}{
		"pruned": pruned,
		"cutoff": cutoff.UTC().Format(time.RFC3339),
	})
}

func importOPML(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: aura-reader import <opml-file>", ExitUsageError)
	}

	file, err := os.Open(c.Args().Get(0))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to open OPML file: %v", err), ExitDataError)
	}
	defer file.Close()

	subs, err := opml.Parse(file)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to parse OPML: %v", err), ExitDataError)
	}

	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	report, err := e.subs.Import(c.Context, subs)
	if err != nil {
		return exitFor("Failed to import subscriptions", err)
	}

	return outputJSON(map[string]interface{}{
		"success":  true,
		"imported": len(report.Imported),
		"skipped":  report.Skipped,
		"total":    report.Total,
		"errors":   report.Errors,
	})
}

func exportOPML(c *cli.Context) error {
	e, err := newEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	subs, err := e.subs.List(c.Context)
	if err != nil {
		return exitFor("Failed to get subscriptions", err)
	}

	outputPath := c.String("output")
	var writer io.Writer = os.Stdout
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to create output file: %v", err), ExitDataError)
		}
		defer file.Close()
		writer = file
	}

	if err := opml.Generate(writer, subs); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to generate OPML: %v", err), ExitDataError)
	}

	if outputPath != "" {
		return outputJSON(map[string]interface{}{
			"success": true,
			"file":    outputPath,
			"count":   len(subs),
		})
	}
	return nil
}
