package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/drewfead/marquee/internal"
)

func staticNamespace(venue internal.Venue) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("static:"+venue.Slug))
}

// RawListing is one unparsed title/time pair, as a Static venue would show it.
type RawListing struct {
	Title   string
	Time    string
	URL     string
	Premium bool
	Double  bool
}

type staticExtractor struct {
	venue    internal.Venue
	listings map[string][]RawListing // dateKey -> listings
	err      error
}

// StaticOption configures a Static extractor.
type StaticOption func(*staticExtractor)

// StaticWithListings sets the raw listings returned for a YYYY-MM-DD date key.
func StaticWithListings(dateKey string, listings ...RawListing) StaticOption {
	return func(s *staticExtractor) {
		s.listings[dateKey] = append(s.listings[dateKey], listings...)
	}
}

// StaticWithError makes every Extract fail, simulating a broken venue.
func StaticWithError(err error) StaticOption {
	return func(s *staticExtractor) {
		s.err = err
	}
}

// Static returns an extractor with fixed raw listings. With no options it
// always yields an empty result — the registry default — and with them it
// stands in for a real venue in tests.
func Static(venue internal.Venue, opts ...StaticOption) internal.Extractor {
	s := &staticExtractor{
		venue:    venue,
		listings: make(map[string][]RawListing),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// None is the empty placeholder venue.
func None() internal.Extractor {
	return Static(internal.Venue{Slug: "none", Name: "None", URL: ""})
}

func (s *staticExtractor) Venue() internal.Venue {
	return s.venue
}

func (s *staticExtractor) Extract(_ context.Context, day time.Time) (internal.VenueResult, error) {
	if s.err != nil {
		return emptyResult(s.venue, ""), s.err
	}
	slog.Debug("static: extract", "venue", s.venue.Slug, "date", day.Format(time.DateOnly))
	c := newSessionCollector(s.venue, staticNamespace(s.venue), day)
	for _, l := range s.listings[day.Format(time.DateOnly)] {
		opts := []listingOption{withURL(l.URL)}
		if l.Premium {
			opts = append(opts, asPremium())
		}
		if l.Double {
			opts = append(opts, asDoubleFeature())
		}
		c.add(l.Title, l.Time, opts...)
	}
	return c.result(""), nil
}
