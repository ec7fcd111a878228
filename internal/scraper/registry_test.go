package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewfead/marquee/internal"
)

func TestUnit_Registry(t *testing.T) {
	a := internal.Venue{Slug: "a", Name: "A", URL: "https://a.example"}
	b := internal.Venue{Slug: "b", Name: "B", URL: "https://b.example"}
	r := NewRegistry(
		WithExtractor(Static(b)),
		WithExtractor(Static(a)),
	)

	assert.Equal(t, []string{"b", "a"}, r.Slugs(), "slugs preserve registration order")

	got, err := r.GetExtractor("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Venue().Slug)

	_, err = r.GetExtractor("nope")
	require.ErrorIs(t, err, ErrExtractorNotFound)
}

type countingExtractor struct {
	inner internal.Extractor
	calls int
}

func (c *countingExtractor) Venue() internal.Venue { return c.inner.Venue() }

func (c *countingExtractor) Extract(ctx context.Context, day time.Time) (internal.VenueResult, error) {
	c.calls++
	return c.inner.Extract(ctx, day)
}

func TestUnit_Registry_CachedMiddleware(t *testing.T) {
	venue := internal.Venue{Slug: "stub", Name: "Stub", URL: "https://stub.example"}
	counting := &countingExtractor{inner: Static(venue,
		StaticWithListings("2026-02-20", RawListing{Title: "Movie X", Time: "2:30 PM"}))}
	r := NewRegistry(WithExtractor(counting, Cached(4, time.Minute)))

	e, err := r.GetExtractor("stub")
	require.NoError(t, err)

	day := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	first, err := e.Extract(context.Background(), day)
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, 1, counting.calls, "second extraction for the same date is served from cache")
	assert.Equal(t, first, second)

	_, err = e.Extract(context.Background(), day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, counting.calls, "a different date misses the cache")
}

func TestUnit_Registry_CachedMiddleware_ErrorsNotCached(t *testing.T) {
	venue := internal.Venue{Slug: "broken", Name: "Broken", URL: "https://broken.example"}
	counting := &countingExtractor{inner: Static(venue, StaticWithError(errors.New("boom")))}
	r := NewRegistry(WithExtractor(counting, Cached(4, time.Minute)))

	e, err := r.GetExtractor("broken")
	require.NoError(t, err)

	day := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	_, err = e.Extract(context.Background(), day)
	require.Error(t, err)
	_, err = e.Extract(context.Background(), day)
	require.Error(t, err)
	assert.Equal(t, 2, counting.calls, "failures are retried, not cached")
}
