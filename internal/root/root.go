package root

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/drewfead/marquee/internal"
	"github.com/drewfead/marquee/internal/enrichment"
	"github.com/drewfead/marquee/internal/scraper"
	"github.com/drewfead/marquee/internal/services"
)

const venueCacheTTL = 5 * time.Minute

var errMissingAPIKey = errors.New("TMDB API key is required (set --tmdb-api-key or MARQUEE_TMDB_API_KEY)")

// RootOption configures the root command (e.g. for tests).
type RootOption func(*rootConfig)

type rootConfig struct {
	registry scraper.Registry
	provider internal.MetadataProvider
}

// WithRegistry sets the extractor registry. Use in tests to inject extractors
// pointed at golden HTTP servers instead of the default (Rod) extractors.
func WithRegistry(registry scraper.Registry) RootOption {
	return func(c *rootConfig) {
		c.registry = registry
	}
}

// WithProvider sets the metadata provider, bypassing TMDB setup and the API
// key requirement. For tests.
func WithProvider(provider internal.MetadataProvider) RootOption {
	return func(c *rootConfig) {
		c.provider = provider
	}
}

func defaultRegistry() scraper.Registry {
	return scraper.NewRegistry(
		scraper.WithExtractor(scraper.Hollywood(), scraper.Cached(16, venueCacheTTL)),
		scraper.WithExtractor(scraper.Cinemagic(), scraper.Cached(16, venueCacheTTL)),
		scraper.WithExtractor(scraper.Cinema21(), scraper.Cached(16, venueCacheTTL)),
		scraper.WithExtractor(scraper.Academy(), scraper.Cached(16, venueCacheTTL)),
		scraper.WithExtractor(scraper.Laurelhurst(), scraper.Cached(16, venueCacheTTL)),
		scraper.WithExtractor(scraper.Bagdad(), scraper.Cached(16, venueCacheTTL)),
	)
}

// Root builds the marquee CLI command: one shot per run, scrape every
// configured venue for the configured days, enrich, and replace the feed
// artifact.
func Root(opts ...RootOption) *cli.Command {
	cfg := &rootConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return &cli.Command{
		Name:  "marquee",
		Usage: "aggregate daily movie showtimes into a single JSON feed",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "days",
				Usage:   "number of venue-local calendar days to cover, starting today",
				Value:   3,
				Sources: cli.EnvVars("MARQUEE_DAYS"),
			},
			&cli.StringFlag{
				Name:    "output",
				Usage:   "path of the feed artifact, fully overwritten each run",
				Value:   "showtimes.json",
				Sources: cli.EnvVars("MARQUEE_OUTPUT"),
			},
			&cli.StringFlag{
				Name:    "timezone",
				Usage:   "IANA timezone the venues operate in",
				Value:   "America/Los_Angeles",
				Sources: cli.EnvVars("MARQUEE_TIMEZONE"),
			},
			&cli.StringSliceFlag{
				Name:    "venue",
				Usage:   "restrict the run to the named venue slugs (repeatable)",
				Sources: cli.EnvVars("MARQUEE_VENUES"),
			},
			&cli.StringFlag{
				Name:    "tmdb-api-key",
				Usage:   "TMDB v4 API read access token",
				Sources: cli.EnvVars("MARQUEE_TMDB_API_KEY", "TMDB_API_KEY"),
			},
			&cli.DurationFlag{
				Name:    "tmdb-throttle",
				Usage:   "delay after each TMDB lookup that hits the network",
				Value:   250 * time.Millisecond,
				Sources: cli.EnvVars("MARQUEE_TMDB_THROTTLE"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			provider := cfg.provider
			if provider == nil {
				apiKey := cmd.String("tmdb-api-key")
				if apiKey == "" {
					return errMissingAPIKey
				}
				var err error
				provider, err = enrichment.TMDB(apiKey,
					enrichment.WithThrottle(cmd.Duration("tmdb-throttle")))
				if err != nil {
					return fmt.Errorf("failed to configure TMDB: %w", err)
				}
			}

			registry := cfg.registry
			if registry == nil {
				registry = defaultRegistry()
			}

			loc, err := time.LoadLocation(cmd.String("timezone"))
			if err != nil {
				return fmt.Errorf("invalid --timezone %q: %w", cmd.String("timezone"), err)
			}

			builderOpts := []services.FeedOption{
				services.WithDays(int(cmd.Int("days"))),
				services.WithLocation(loc),
			}
			if venues := cmd.StringSlice("venue"); len(venues) > 0 {
				builderOpts = append(builderOpts, services.WithVenues(venues...))
			}

			feed := services.NewFeedBuilder(registry, provider, builderOpts...).Build(ctx)

			outputPath := cmd.String("output")
			if err := services.WriteFeed(feed, outputPath); err != nil {
				return err
			}
			var sessions int
			for _, day := range feed.Days {
				for _, cinema := range day.Cinemas {
					sessions += len(cinema.Sessions)
				}
			}
			slog.Info("feed written",
				"path", outputPath, "days", len(feed.Days), "sessions", sessions)
			return nil
		},
	}
}
