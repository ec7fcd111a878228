package enrichment

import (
	"context"
	"log/slog"

	"github.com/drewfead/marquee/internal"
)

// EnrichSessions attaches metadata to every session in place of its zero
// enrichment fields. Double features are looked up per constituent film and
// carry both the per-film metadata and an aggregate for the combined card.
// Lookups never fail; a film the provider cannot match keeps zero fields.
func EnrichSessions(ctx context.Context, sessions []internal.Session, provider internal.MetadataProvider) []internal.Session {
	enriched := make([]internal.Session, len(sessions))
	for i, session := range sessions {
		if session.IsDoubleFeature {
			if films := SplitDoubleFeature(session.Title); len(films) >= 2 {
				session.Films = make([]internal.Metadata, len(films))
				for j, title := range films {
					session.Films[j] = provider.Lookup(ctx, title)
				}
				session.Metadata = aggregateFilms(session.Films)
				enriched[i] = session
				continue
			}
			slog.Warn("double feature title has no recognized separator, treating as one film",
				"title", session.Title)
		}
		session.Metadata = provider.Lookup(ctx, session.Title)
		enriched[i] = session
	}
	return enriched
}

// aggregateFilms folds per-constituent metadata into one combined record:
// runtime is the sum of known runtimes, rating the mean of known ratings,
// the descriptive fields come from the first film that has them, and the
// year is always the first film's.
func aggregateFilms(films []internal.Metadata) internal.Metadata {
	var agg internal.Metadata
	if len(films) == 0 {
		return agg
	}
	agg.Year = films[0].Year

	var runtimeSum int
	var runtimeKnown bool
	var ratingSum float64
	var ratingCount int
	for _, f := range films {
		if f.Runtime != nil {
			runtimeSum += *f.Runtime
			runtimeKnown = true
		}
		if f.Rating != nil {
			ratingSum += *f.Rating
			ratingCount++
		}
		if agg.Overview == "" {
			agg.Overview = f.Overview
		}
		if agg.PosterPath == "" {
			agg.PosterPath = f.PosterPath
		}
		if agg.TrailerURL == "" {
			agg.TrailerURL = f.TrailerURL
		}
	}
	if runtimeKnown {
		agg.Runtime = &runtimeSum
	}
	if ratingCount > 0 {
		rating := ratingSum / float64(ratingCount)
		agg.Rating = &rating
	}
	return agg
}
