package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tmdb "github.com/cyruzin/golang-tmdb"
	"github.com/hashicorp/golang-lru/v2"

	"github.com/drewfead/marquee/internal"
	"github.com/drewfead/marquee/internal/httputil"
)

const (
	defaultTMDBThrottle   = 250 * time.Millisecond
	defaultTMDBMemoSize   = 512
	youtubeWatchURLFormat = "https://www.youtube.com/watch?v=%s"
)

type tmdbProvider struct {
	client   *tmdb.Client
	throttle time.Duration
	memo     *lru.Cache[string, internal.Metadata]

	// Stubbed by tests; point at the real client in TMDB.
	searchFn  func(query string, urlOptions map[string]string) (*tmdb.SearchMovies, error)
	detailsFn func(id int, urlOptions map[string]string) (*tmdb.MovieDetails, error)
}

// TMDBOption applies configuration to a TMDB metadata provider.
type TMDBOption func(*tmdbProvider)

// WithThrottle sets the fixed delay observed after each lookup that went to
// the network. The delay keeps a full run under TMDB's rate limit; cache
// hits skip it.
func WithThrottle(d time.Duration) TMDBOption {
	return func(p *tmdbProvider) {
		p.throttle = d
	}
}

// TMDB returns a MetadataProvider backed by themoviedb.org. Results are
// memoized per raw title for the life of the provider, so a film playing at
// several venues costs one search.
func TMDB(apiKey string, opts ...TMDBOption) (internal.MetadataProvider, error) {
	tmdbClient, err := tmdb.InitV4(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize TMDB client: %w", err)
	}
	tmdbClient.SetClientConfig(http.Client{
		Transport: &httputil.CacheTransport{Base: http.DefaultTransport},
	})
	memo, err := lru.New[string, internal.Metadata](defaultTMDBMemoSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize TMDB memo cache: %w", err)
	}
	p := &tmdbProvider{
		client:    tmdbClient,
		throttle:  defaultTMDBThrottle,
		memo:      memo,
		searchFn:  tmdbClient.GetSearchMovies,
		detailsFn: tmdbClient.GetMovieDetails,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *tmdbProvider) Lookup(ctx context.Context, rawTitle string) internal.Metadata {
	key := strings.ToLower(strings.TrimSpace(rawTitle))
	if m, ok := p.memo.Get(key); ok {
		return m
	}
	m := p.fetch(rawTitle)
	p.memo.Add(key, m)
	p.pause(ctx)
	return m
}

// fetch runs the two-step search-then-details flow. Search picks the first
// result unconditionally: venues showing classic re-releases must match the
// original film, and popularity re-ranking would pick a modern remake.
// Every failure mode collapses to the zero Metadata.
func (p *tmdbProvider) fetch(rawTitle string) internal.Metadata {
	query := CanonicalTitle(rawTitle)
	if query == "" {
		return internal.Metadata{}
	}
	searchResults, err := p.searchFn(query, map[string]string{"language": "en-US"})
	if err != nil {
		slog.Warn("tmdb: search failed", "query", query, "error", err)
		return internal.Metadata{}
	}
	if len(searchResults.Results) == 0 {
		slog.Debug("tmdb: no match", "query", query, "raw_title", rawTitle)
		return internal.Metadata{}
	}
	first := searchResults.Results[0]

	m := internal.Metadata{
		Overview:   first.Overview,
		PosterPath: first.PosterPath,
		TMDBID:     first.ID,
	}
	if first.VoteAverage > 0 {
		rating := float64(first.VoteAverage)
		m.Rating = &rating
	}
	if len(first.ReleaseDate) >= 4 {
		m.Year = first.ReleaseDate[:4]
	}

	details, err := p.detailsFn(int(first.ID), map[string]string{"append_to_response": "videos"})
	if err != nil {
		// Keep the primary match; only runtime and trailer degrade.
		slog.Warn("tmdb: details failed", "movie_id", first.ID, "error", err)
		return m
	}
	if details.Runtime > 0 {
		runtime := details.Runtime
		m.Runtime = &runtime
	}
	m.TrailerURL = pickTrailer(details)
	return m
}

// pickTrailer selects the first YouTube video typed Trailer, falling back to
// the first Teaser.
func pickTrailer(details *tmdb.MovieDetails) string {
	if details.MovieVideosAppend == nil || details.Videos == nil {
		return ""
	}
	var teaser string
	for _, v := range details.Videos.Results {
		if v.Site != "YouTube" || v.Key == "" {
			continue
		}
		switch v.Type {
		case "Trailer":
			return fmt.Sprintf(youtubeWatchURLFormat, v.Key)
		case "Teaser":
			if teaser == "" {
				teaser = fmt.Sprintf(youtubeWatchURLFormat, v.Key)
			}
		}
	}
	return teaser
}

// pause observes the post-lookup throttle, bailing early on context cancel.
func (p *tmdbProvider) pause(ctx context.Context) {
	if p.throttle <= 0 {
		return
	}
	timer := time.NewTimer(p.throttle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
