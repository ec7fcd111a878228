package enrichment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewfead/marquee/internal"
)

func TestUnit_SplitDoubleFeature(t *testing.T) {
	assert.Equal(t, []string{"Alien", "Aliens"}, SplitDoubleFeature("Alien + Aliens"))
	assert.Equal(t, []string{"House", "House II"}, SplitDoubleFeature("House & House II"))
	assert.Nil(t, SplitDoubleFeature("The Goonies"))

	// " + " wins when both separators appear.
	assert.Equal(t, []string{"Fast & Furious", "Tokyo Drift"}, SplitDoubleFeature("Fast & Furious + Tokyo Drift"))
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestUnit_AggregateFilms(t *testing.T) {
	t.Run("ratings average and runtimes sum", func(t *testing.T) {
		agg := aggregateFilms([]internal.Metadata{
			{Rating: floatPtr(6.0), Runtime: intPtr(117), Year: "1979", PosterPath: "/alien.jpg"},
			{Rating: floatPtr(8.0), Runtime: intPtr(137), Year: "1986", PosterPath: "/aliens.jpg"},
		})
		require.NotNil(t, agg.Rating)
		assert.InDelta(t, 7.0, *agg.Rating, 0.001)
		require.NotNil(t, agg.Runtime)
		assert.Equal(t, 254, *agg.Runtime)
		assert.Equal(t, "1979", agg.Year, "year comes from the first film")
		assert.Equal(t, "/alien.jpg", agg.PosterPath, "descriptive fields prefer the first film")
	})

	t.Run("single known runtime is kept, not nulled", func(t *testing.T) {
		agg := aggregateFilms([]internal.Metadata{
			{Runtime: intPtr(90)},
			{},
		})
		require.NotNil(t, agg.Runtime)
		assert.Equal(t, 90, *agg.Runtime)
	})

	t.Run("single known rating is kept as-is", func(t *testing.T) {
		agg := aggregateFilms([]internal.Metadata{
			{},
			{Rating: floatPtr(7.5)},
		})
		require.NotNil(t, agg.Rating)
		assert.InDelta(t, 7.5, *agg.Rating, 0.001)
	})

	t.Run("nothing known stays absent", func(t *testing.T) {
		agg := aggregateFilms([]internal.Metadata{{}, {}})
		assert.Nil(t, agg.Rating)
		assert.Nil(t, agg.Runtime)
		assert.Empty(t, agg.PosterPath)
	})

	t.Run("descriptive fields fall back to the second film", func(t *testing.T) {
		agg := aggregateFilms([]internal.Metadata{
			{},
			{Overview: "second overview", TrailerURL: "https://www.youtube.com/watch?v=abc"},
		})
		assert.Equal(t, "second overview", agg.Overview)
		assert.Equal(t, "https://www.youtube.com/watch?v=abc", agg.TrailerURL)
	})
}

func TestUnit_EnrichSessions_DoubleFeature(t *testing.T) {
	lookups := map[string]internal.Metadata{
		"Alien":  {Rating: floatPtr(6.0), Runtime: intPtr(117), Overview: "first"},
		"Aliens": {Rating: floatPtr(8.0), Runtime: intPtr(137), Overview: "second"},
	}
	var calls []string
	provider := internal.MetadataFunc(func(_ context.Context, rawTitle string) internal.Metadata {
		calls = append(calls, rawTitle)
		return lookups[rawTitle]
	})

	sessions := EnrichSessions(context.Background(), []internal.Session{
		{Title: "Alien + Aliens", IsDoubleFeature: true, Times: []string{"8:00pm"}},
	}, provider)

	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, []string{"Alien", "Aliens"}, calls, "each constituent is looked up independently")
	require.Len(t, s.Films, 2)
	assert.Equal(t, "first", s.Films[0].Overview)
	require.NotNil(t, s.Rating)
	assert.InDelta(t, 7.0, *s.Rating, 0.001)
	require.NotNil(t, s.Runtime)
	assert.Equal(t, 254, *s.Runtime)
}

func TestUnit_EnrichSessions_SingleFilm(t *testing.T) {
	provider := internal.MetadataFunc(func(_ context.Context, rawTitle string) internal.Metadata {
		if rawTitle == "The Goonies" {
			return internal.Metadata{Year: "1985", Rating: floatPtr(7.5)}
		}
		return internal.Metadata{}
	})

	sessions := EnrichSessions(context.Background(), []internal.Session{
		{Title: "The Goonies", Times: []string{"2:15pm"}},
		{Title: "Secret Members Screening"},
	}, provider)

	require.Len(t, sessions, 2)
	assert.Equal(t, "1985", sessions[0].Year)
	assert.Empty(t, sessions[1].Films, "films array only appears on double features")
	assert.Nil(t, sessions[1].Rating, "no match keeps zero enrichment fields")
}
