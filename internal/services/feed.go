package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/drewfead/marquee/internal"
	"github.com/drewfead/marquee/internal/enrichment"
	"github.com/drewfead/marquee/internal/scraper"
)

const (
	defaultDayCount     = 3
	defaultTimezoneCode = "America/Los_Angeles"
	feedDateFormat      = "Monday 2 January"
)

// FeedBuilder walks configured dates and venues in sequence, runs each
// venue's extractor, enriches the sessions, and assembles the Feed. Venue
// order follows registry registration order; a failing venue contributes an
// empty result and never aborts the run.
type FeedBuilder struct {
	registry scraper.Registry
	provider internal.MetadataProvider
	venues   []string
	days     int
	now      func() time.Time
	location *time.Location
}

// FeedOption configures a FeedBuilder.
type FeedOption func(*FeedBuilder)

// WithDays sets how many venue-local calendar days to cover, starting today.
func WithDays(n int) FeedOption {
	return func(b *FeedBuilder) {
		if n > 0 {
			b.days = n
		}
	}
}

// WithVenues restricts the feed to the named venue slugs, in the given
// order. Default is every registered venue in registration order.
func WithVenues(slugs ...string) FeedOption {
	return func(b *FeedBuilder) {
		if len(slugs) > 0 {
			b.venues = slugs
		}
	}
}

// WithLocation sets the venue-local timezone used to resolve "today".
func WithLocation(loc *time.Location) FeedOption {
	return func(b *FeedBuilder) {
		if loc != nil {
			b.location = loc
		}
	}
}

// WithNow overrides the clock. For tests.
func WithNow(now func() time.Time) FeedOption {
	return func(b *FeedBuilder) {
		if now != nil {
			b.now = now
		}
	}
}

func NewFeedBuilder(registry scraper.Registry, provider internal.MetadataProvider, opts ...FeedOption) *FeedBuilder {
	loc, err := time.LoadLocation(defaultTimezoneCode)
	if err != nil {
		loc = time.UTC
	}
	b := &FeedBuilder{
		registry: registry,
		provider: provider,
		days:     defaultDayCount,
		now:      time.Now,
		location: loc,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.venues == nil {
		b.venues = registry.Slugs()
	}
	return b
}

// Build runs the full extraction and enrichment pass. Strictly sequential:
// one venue at a time, one lookup at a time. The metadata service is rate
// limited and several extractors share a single headless browser whose
// navigation must be sequenced.
func (b *FeedBuilder) Build(ctx context.Context) internal.Feed {
	now := b.now().In(b.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.location)

	days := make([]internal.DayResult, 0, b.days)
	for offset := range b.days {
		day := today.AddDate(0, 0, offset)
		days = append(days, b.buildDay(ctx, day))
	}
	return internal.Feed{
		GeneratedAt: now,
		Days:        days,
	}
}

func (b *FeedBuilder) buildDay(ctx context.Context, day time.Time) internal.DayResult {
	dateKey := day.Format(time.DateOnly)
	result := internal.DayResult{
		Date:    day.Format(feedDateFormat),
		DateKey: dateKey,
		Cinemas: make([]internal.VenueResult, 0, len(b.venues)),
	}
	for _, slug := range b.venues {
		extractor, err := b.registry.GetExtractor(slug)
		if err != nil {
			slog.Warn("feed: unknown venue, skipping", "venue", slug, "error", err)
			continue
		}
		venueResult, err := extractor.Extract(ctx, day)
		if err != nil {
			slog.Warn("feed: venue extraction failed",
				"venue", slug, "date", dateKey, "error", err)
		}
		if venueResult.Sessions == nil {
			venue := extractor.Venue()
			venueResult = internal.VenueResult{
				Cinema:   venue.Name,
				URL:      venue.URL,
				Sessions: []internal.Session{},
				Note:     venueResult.Note,
			}
		}
		venueResult.Sessions = enrichment.EnrichSessions(ctx, venueResult.Sessions, b.provider)
		result.Cinemas = append(result.Cinemas, venueResult)
		slog.Info("feed: venue done",
			"venue", slug, "date", dateKey, "sessions", len(venueResult.Sessions))
	}
	return result
}

// WriteFeed replaces the artifact at path with the marshaled feed. The file
// is fully overwritten each run; there is no merge with prior runs.
func WriteFeed(feed internal.Feed, path string) error {
	data, err := json.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal feed: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}
