package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnit_Cinemagic_Extract(t *testing.T) {
	server := MountGoldenTestServer(t, "cinemagic")
	s := Cinemagic(CinemagicWithBaseURL(server.URL), CinemagicWithClient(server.Client()))
	day := time.Date(2026, 2, 20, 0, 0, 0, 0, portlandTZ)

	res, err := s.Extract(context.Background(), day)
	require.NoError(t, err, "Extract")

	assert.Equal(t, "Cinemagic", res.Cinema)
	require.Len(t, res.Sessions, 2, "unpublished showings should be dropped")

	// Showings arrive unsorted; the earliest starts the session.
	paris := res.Sessions[0]
	assert.Equal(t, "Paris, Texas", paris.Title)
	assert.Equal(t, []string{"4:45pm", "7:30pm"}, paris.Times)
	assert.Equal(t, server.URL+"/movie/paris-texas", paris.URL)

	housemaid := res.Sessions[1]
	assert.Equal(t, "The Housemaid", housemaid.Title)
	assert.Equal(t, []string{"8:00pm"}, housemaid.Times)
}

func TestUnit_Cinemagic_Extract_DateNotListed(t *testing.T) {
	server := MountGoldenTestServer(t, "cinemagic")
	s := Cinemagic(CinemagicWithBaseURL(server.URL), CinemagicWithClient(server.Client()))
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, portlandTZ)

	res, err := s.Extract(context.Background(), day)
	require.NoError(t, err, "an unlisted date is not an error")
	assert.Empty(t, res.Sessions)
	assert.Equal(t, "Cinemagic", res.Cinema)
}

func TestUnit_Cinemagic_ParseDates(t *testing.T) {
	dates, err := parseCinemagicDates([]byte(`{"data":{"datesWithShowing":{"value":"[\"2026-02-20\",\"2026-02-21\"]"}}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-20", "2026-02-21"}, dates)

	_, err = parseCinemagicDates([]byte(`{"data":{"datesWithShowing":{"value":"not json"}}}`))
	require.ErrorIs(t, err, errUnexpectedDatesResponseFormat)
}
