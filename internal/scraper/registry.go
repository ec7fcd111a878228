package scraper

import (
	"errors"
	"fmt"

	"github.com/drewfead/marquee/internal"
)

// Registry resolves venue slugs to extractors. Slugs returns the registered
// slugs in registration order, which fixes the feed's venue ordering.
type Registry interface {
	GetExtractor(slug string) (internal.Extractor, error)
	Slugs() []string
}

type ExtractorMiddleware func(internal.Extractor) internal.Extractor

type RegistryOption func(r *registry)

func NewRegistry(opts ...RegistryOption) Registry {
	r := &registry{
		extractors: make(map[string]internal.Extractor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithExtractor(extractor internal.Extractor, middleware ...ExtractorMiddleware) RegistryOption {
	return func(r *registry) {
		for _, m := range middleware {
			extractor = m(extractor)
		}
		slug := extractor.Venue().Slug
		if _, exists := r.extractors[slug]; !exists {
			r.order = append(r.order, slug)
		}
		r.extractors[slug] = extractor
	}
}

type registry struct {
	extractors map[string]internal.Extractor
	order      []string
}

var ErrExtractorNotFound = errors.New("extractor not found")

func (r *registry) GetExtractor(slug string) (internal.Extractor, error) {
	extractor, ok := r.extractors[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExtractorNotFound, slug)
	}
	return extractor, nil
}

func (r *registry) Slugs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
