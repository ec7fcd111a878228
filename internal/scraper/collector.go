package scraper

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/drewfead/marquee/internal"
)

// sessionCollector accumulates raw listings for one venue/date and merges
// same-titled listings into a single Session, preserving time discovery
// order. Duplicate times within a session are kept: venues legitimately
// list press and public showings at the same clock time.
type sessionCollector struct {
	venue     internal.Venue
	namespace uuid.UUID
	day       time.Time
	order     []string
	byTitle   map[string]*internal.Session
}

func newSessionCollector(venue internal.Venue, namespace uuid.UUID, day time.Time) *sessionCollector {
	return &sessionCollector{
		venue:     venue,
		namespace: namespace,
		day:       day,
		byTitle:   make(map[string]*internal.Session),
	}
}

// listingOption flags attributes of a single raw listing.
type listingOption func(*listing)

type listing struct {
	url           string
	premium       bool
	doubleFeature bool
}

// withURL sets the film's deep link; unset falls back to the venue landing page.
func withURL(u string) listingOption {
	return func(l *listing) {
		if u != "" {
			l.url = u
		}
	}
}

// asPremium marks the listing's time as a premium-format screening.
func asPremium() listingOption {
	return func(l *listing) { l.premium = true }
}

// asDoubleFeature marks the session as a combined two-film program.
func asDoubleFeature() listingOption {
	return func(l *listing) { l.doubleFeature = true }
}

// add records one raw listing. The raw time is normalized here; a listing
// with an empty title is skipped. Returns false when skipped.
func (c *sessionCollector) add(title, rawTime string, opts ...listingOption) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	l := listing{url: c.venue.URL}
	for _, opt := range opts {
		opt(&l)
	}

	s, ok := c.byTitle[title]
	if !ok {
		s = &internal.Session{
			ID:    uuid.NewSHA1(c.namespace, []byte(c.day.Format(time.DateOnly)+"|"+title)).String(),
			Title: title,
			URL:   l.url,
		}
		c.byTitle[title] = s
		c.order = append(c.order, title)
	}
	if s.URL == c.venue.URL && l.url != c.venue.URL {
		s.URL = l.url
	}
	if l.doubleFeature {
		s.IsDoubleFeature = true
	}
	if rawTime = strings.TrimSpace(rawTime); rawTime != "" {
		t := NormalizeClock(rawTime)
		s.Times = append(s.Times, t)
		if l.premium {
			s.PremiumTimes = append(s.PremiumTimes, t)
		}
	}
	return true
}

// result assembles the VenueResult with sessions in first-seen title order.
func (c *sessionCollector) result(note string) internal.VenueResult {
	sessions := make([]internal.Session, 0, len(c.order))
	for _, title := range c.order {
		sessions = append(sessions, *c.byTitle[title])
	}
	return internal.VenueResult{
		Cinema:   c.venue.Name,
		URL:      c.venue.URL,
		Sessions: sessions,
		Note:     note,
	}
}

// emptyResult is the well-shaped zero-session result used on total venue failure.
func emptyResult(venue internal.Venue, note string) internal.VenueResult {
	return internal.VenueResult{
		Cinema:   venue.Name,
		URL:      venue.URL,
		Sessions: []internal.Session{},
		Note:     note,
	}
}
