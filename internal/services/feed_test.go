package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewfead/marquee/internal"
	"github.com/drewfead/marquee/internal/scraper"
)

var testTZ = time.UTC

func fixedNow() time.Time {
	return time.Date(2026, 2, 20, 10, 0, 0, 0, testTZ)
}

func TestUnit_FeedBuilder_EndToEnd(t *testing.T) {
	venue := internal.Venue{Slug: "stub", Name: "Stub Cinema", URL: "https://stub.example"}
	registry := scraper.NewRegistry(
		scraper.WithExtractor(scraper.Static(venue,
			scraper.StaticWithListings("2026-02-20",
				scraper.RawListing{Title: "Movie X", Time: "2:30 PM"},
				scraper.RawListing{Title: "Movie X", Time: "14:35"},
			),
		)),
	)
	rating := 7.5
	provider := internal.MetadataFunc(func(_ context.Context, rawTitle string) internal.Metadata {
		if rawTitle == "Movie X" {
			return internal.Metadata{Rating: &rating, Year: "2024"}
		}
		return internal.Metadata{}
	})

	b := NewFeedBuilder(registry, provider,
		WithDays(1), WithLocation(testTZ), WithNow(fixedNow))
	feed := b.Build(context.Background())

	require.Len(t, feed.Days, 1)
	day := feed.Days[0]
	assert.Equal(t, "2026-02-20", day.DateKey)
	assert.Equal(t, "Friday 20 February", day.Date)
	require.Len(t, day.Cinemas, 1)
	require.Len(t, day.Cinemas[0].Sessions, 1, "same-titled listings merge into one session")

	s := day.Cinemas[0].Sessions[0]
	assert.Equal(t, "Movie X", s.Title)
	assert.Equal(t, []string{"2:30pm", "2:35pm"}, s.Times)
	require.NotNil(t, s.Rating)
	assert.InDelta(t, 7.5, *s.Rating, 0.001)
	assert.Equal(t, "2024", s.Year)
	assert.Nil(t, s.Runtime)
	assert.Empty(t, s.TrailerURL)
}

func TestUnit_FeedBuilder_VenueFailureIsolated(t *testing.T) {
	broken := internal.Venue{Slug: "broken", Name: "Broken Cinema", URL: "https://broken.example"}
	healthy := internal.Venue{Slug: "healthy", Name: "Healthy Cinema", URL: "https://healthy.example"}
	registry := scraper.NewRegistry(
		scraper.WithExtractor(scraper.Static(broken,
			scraper.StaticWithError(errors.New("page never reached expected state")))),
		scraper.WithExtractor(scraper.Static(healthy,
			scraper.StaticWithListings("2026-02-20",
				scraper.RawListing{Title: "Movie Y", Time: "7:00 PM"}))),
	)
	provider := internal.MetadataFunc(func(context.Context, string) internal.Metadata {
		return internal.Metadata{}
	})

	b := NewFeedBuilder(registry, provider,
		WithDays(1), WithLocation(testTZ), WithNow(fixedNow))
	feed := b.Build(context.Background())

	require.Len(t, feed.Days, 1)
	require.Len(t, feed.Days[0].Cinemas, 2, "a failed venue still appears, with no sessions")
	assert.Equal(t, "Broken Cinema", feed.Days[0].Cinemas[0].Cinema)
	assert.Empty(t, feed.Days[0].Cinemas[0].Sessions)
	assert.Equal(t, "Healthy Cinema", feed.Days[0].Cinemas[1].Cinema)
	require.Len(t, feed.Days[0].Cinemas[1].Sessions, 1)
}

func TestUnit_FeedBuilder_DayAndVenueOrdering(t *testing.T) {
	a := internal.Venue{Slug: "a", Name: "A", URL: "https://a.example"}
	z := internal.Venue{Slug: "z", Name: "Z", URL: "https://z.example"}
	registry := scraper.NewRegistry(
		scraper.WithExtractor(scraper.Static(z)),
		scraper.WithExtractor(scraper.Static(a)),
	)
	provider := internal.MetadataFunc(func(context.Context, string) internal.Metadata {
		return internal.Metadata{}
	})

	b := NewFeedBuilder(registry, provider,
		WithDays(2), WithLocation(testTZ), WithNow(fixedNow))
	feed := b.Build(context.Background())

	require.Len(t, feed.Days, 2)
	assert.Equal(t, "2026-02-20", feed.Days[0].DateKey)
	assert.Equal(t, "2026-02-21", feed.Days[1].DateKey)
	for _, day := range feed.Days {
		require.Len(t, day.Cinemas, 2)
		assert.Equal(t, "Z", day.Cinemas[0].Cinema, "venue order follows registration order")
		assert.Equal(t, "A", day.Cinemas[1].Cinema)
	}
}

func TestUnit_WriteFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showtimes.json")
	feed := internal.Feed{
		GeneratedAt: fixedNow(),
		Days: []internal.DayResult{
			{
				Date:    "Friday 20 February",
				DateKey: "2026-02-20",
				Cinemas: []internal.VenueResult{
					{Cinema: "Stub Cinema", URL: "https://stub.example", Sessions: []internal.Session{
						{ID: "id-1", Title: "Movie X", Times: []string{"2:30pm"}, URL: "https://stub.example"},
					}},
				},
			},
		},
	}

	require.NoError(t, WriteFeed(feed, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var roundTripped internal.Feed
	require.NoError(t, json.Unmarshal(data, &roundTripped))
	require.Len(t, roundTripped.Days, 1)
	assert.Equal(t, feed.Days[0], roundTripped.Days[0])

	// Absent enrichment fields must be omitted, not serialized as nulls.
	assert.NotContains(t, string(data), `"rating"`)
	assert.NotContains(t, string(data), `"films"`)
}
