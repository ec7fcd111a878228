package scraper

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/drewfead/marquee/internal"
)

// Cached returns middleware that wraps an Extractor with LRU+TTL caching
// keyed by target date. Apply it to any extractor:
//
//	scraper.NewRegistry(scraper.WithExtractor(scraper.Hollywood(), scraper.Cached(16, 5*time.Minute)))
//
// maxEntries is the LRU size; ttl is how long entries stay valid (zero = no expiration).
func Cached(maxEntries int, ttl time.Duration) ExtractorMiddleware {
	return func(inner internal.Extractor) internal.Extractor {
		if inner == nil {
			return nil
		}
		return newCachingExtractor(inner, maxEntries, ttl)
	}
}

func newCachingExtractor(inner internal.Extractor, maxEntries int, ttl time.Duration) internal.Extractor {
	if maxEntries <= 0 {
		maxEntries = 16
	}
	return &cachingExtractor{
		inner: inner,
		cache: expirable.NewLRU[string, internal.VenueResult](maxEntries, nil, ttl),
	}
}

// cachingExtractor caches one VenueResult per target date. Within a single
// run this makes re-extraction (e.g. the same venue requested twice) free.
type cachingExtractor struct {
	inner internal.Extractor
	cache *expirable.LRU[string, internal.VenueResult]
}

func (c *cachingExtractor) Venue() internal.Venue {
	return c.inner.Venue()
}

func (c *cachingExtractor) Extract(ctx context.Context, day time.Time) (internal.VenueResult, error) {
	key := day.Format(time.DateOnly)
	if res, ok := c.cache.Get(key); ok {
		return res, nil
	}
	res, err := c.inner.Extract(ctx, day)
	if err != nil {
		return res, err
	}
	c.cache.Add(key, res)
	return res, nil
}
