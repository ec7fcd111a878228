package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnit_Academy_Extract(t *testing.T) {
	server := MountGoldenTestServer(t, "academy")
	s := Academy(AcademyWithBaseURL(server.URL), AcademyWithClient(server.Client()))
	day := time.Date(2026, 2, 20, 0, 0, 0, 0, portlandTZ)

	res, err := s.Extract(context.Background(), day)
	require.NoError(t, err, "Extract")

	assert.Equal(t, "Academy Theater", res.Cinema)
	assert.Equal(t, academyNote, res.Note)
	require.Len(t, res.Sessions, 3)

	goonies := res.Sessions[0]
	assert.Equal(t, "The Goonies", goonies.Title)
	assert.Equal(t, []string{"2:15pm", "4:45pm", "7:15pm"}, goonies.Times)
	assert.Equal(t, server.URL+"/film/the-goonies/", goonies.URL)
	assert.False(t, goonies.IsDoubleFeature)

	double := res.Sessions[1]
	assert.Equal(t, "Alien + Aliens", double.Title)
	assert.True(t, double.IsDoubleFeature)
	assert.Equal(t, []string{"8:00pm"}, double.Times)

	// A card posted without times still shows up, linking the landing page.
	teaser := res.Sessions[2]
	assert.Equal(t, "Secret Members Screening", teaser.Title)
	assert.Empty(t, teaser.Times)
	assert.Equal(t, server.URL, teaser.URL)
}

func TestUnit_Academy_Extract_OtherDay(t *testing.T) {
	server := MountGoldenTestServer(t, "academy")
	s := Academy(AcademyWithBaseURL(server.URL), AcademyWithClient(server.Client()))
	day := time.Date(2026, 2, 21, 0, 0, 0, 0, portlandTZ)

	res, err := s.Extract(context.Background(), day)
	require.NoError(t, err, "Extract")
	require.Len(t, res.Sessions, 1)
	assert.Equal(t, []string{"1:00pm", "3:30pm"}, res.Sessions[0].Times)
}

func TestUnit_Academy_DoubleFeatureDetection(t *testing.T) {
	assert.True(t, isAcademyDoubleFeature("Alien + Aliens"))
	assert.True(t, isAcademyDoubleFeature("House & House II"))
	assert.False(t, isAcademyDoubleFeature("The Goonies"))
	assert.False(t, isAcademyDoubleFeature("Alien+Aliens"), "separator requires surrounding spaces")
}
