package internal

import (
	"context"
	"net/http"
	"time"
)

// Venue identifies one independently-scraped exhibitor site.
type Venue struct {
	Slug string // registry key, e.g. "hollywood"
	Name string // display name, e.g. "Hollywood Theatre"
	URL  string // landing page; session deep-link fallback
}

// Extractor turns one venue's raw document or API response for one target
// date into a uniform VenueResult. Implementations are bespoke per venue.
//
// Extract must merge same-titled listings into one Session before returning
// and must never fail on a single malformed listing; total failure (e.g. the
// markup changed) surfaces as an error, which the orchestrator downgrades to
// an empty result for that venue.
type Extractor interface {
	Venue() Venue
	Extract(ctx context.Context, day time.Time) (VenueResult, error)
}

// GoldenExtractor extends Extractor with the ability to pull and serve golden test data.
type GoldenExtractor interface {
	Extractor
	PullGolden(ctx context.Context, goldenDir string) error
	MountGolden(ctx context.Context, goldenDir string) (http.Handler, error)
}
