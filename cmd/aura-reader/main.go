package main

import (
	"fmt"
	"os"

	"github.com/aurareader/aura-reader/config"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

func main() {
	// A missing .env is fine; flags and the real environment still apply.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func newApp() *cli.App {
	defaults := config.Default()

	return &cli.App{
		Name:    "aura-reader",
		Usage:   "Subscribe to RSS, Atom and RDF feeds and read normalized articles",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Value:   defaults.DBPath,
				Usage:   "Database file path",
				EnvVars: []string{"AURA_DB"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   defaults.Timeout,
				Usage:   "Timeout for each outbound feed request",
				EnvVars: []string{"AURA_TIMEOUT"},
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Value:   defaults.Concurrency,
				Usage:   "Maximum parallel fetches when refreshing all subscriptions",
				EnvVars: []string{"AURA_CONCURRENCY"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   defaults.LogLevel,
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"AURA_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Value:   defaults.Addr,
						Usage:   "Listen address",
						EnvVars: []string{"AURA_ADDR"},
					},
				},
				Action: serve,
			},
			{
				Name:      "add",
				Usage:     "Subscribe to a feed",
				ArgsUsage: "<url>",
				Action:    addSubscription,
			},
			{
				Name:    "subscriptions",
				Aliases: []string{"feeds"},
				Usage:   "List subscriptions",
				Action:  listSubscriptions,
			},
			{
				Name:      "edit",
				Usage:     "Change the URL or title of a subscription",
				ArgsUsage: "<subscription-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "New feed URL"},
					&cli.StringFlag{Name: "title", Usage: "New display title"},
				},
				Action: editSubscription,
			},
			{
				Name:      "remove",
				Usage:     "Unsubscribe from a feed",
				ArgsUsage: "<subscription-id>",
				Action:    removeSubscription,
			},
			{
				Name:      "fetch",
				Usage:     "Fetch and normalize a feed URL without subscribing",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "sanitize",
						Usage: "Sanitize article HTML for display",
					},
				},
				Action: fetchFeed,
			},
			{
				Name:  "refresh",
				Usage: "Fetch articles for subscriptions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Refresh one subscription by ID (if not set, refreshes all)",
					},
				},
				Action: refresh,
			},
			{
				Name:      "mark-read",
				Usage:     "Mark articles as read",
				ArgsUsage: "<article-id>...",
				Action:    markRead,
			},
			{
				Name:      "mark-unread",
				Usage:     "Forget the read state of articles",
				ArgsUsage: "<article-id>...",
				Action:    markUnread,
			},
			{
				Name:   "read",
				Usage:  "List read article IDs",
				Action: listRead,
			},
			{
				Name:  "prune-read",
				Usage: "Forget read state older than a duration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "older-than",
						Value: "90d",
						Usage: "Age of read state to forget (e.g., 30d, 2w, 6m, 1y)",
					},
				},
				Action: pruneRead,
			},
			{
				Name:      "import",
				Usage:     "Import subscriptions from an OPML file",
				ArgsUsage: "<opml-file>",
				Action:    importOPML,
			},
			{
				Name:  "export",
				Usage: "Export subscriptions to an OPML file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				},
				Action: exportOPML,
			},
		},
	}
}
