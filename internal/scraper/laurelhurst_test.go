package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnit_Laurelhurst_Extract(t *testing.T) {
	server := MountGoldenTestServer(t, "laurelhurst")
	s := Laurelhurst(LaurelhurstWithBaseURL(server.URL), LaurelhurstWithClient(server.Client()))
	day := time.Date(2026, 2, 20, 0, 0, 0, 0, portlandTZ)

	res, err := s.Extract(context.Background(), day)
	require.NoError(t, err, "Extract")

	assert.Equal(t, "Laurelhurst Theater", res.Cinema)
	require.Len(t, res.Sessions, 2, "films with no times are skipped")

	eraserhead := res.Sessions[0]
	assert.Equal(t, "Eraserhead", eraserhead.Title)
	assert.Equal(t, []string{"5:10pm", "9:40pm"}, eraserhead.Times)
	assert.Equal(t, server.URL+"/movie/eraserhead", eraserhead.URL)

	lebowski := res.Sessions[1]
	assert.Equal(t, "The Big Lebowski", lebowski.Title)
	assert.Equal(t, []string{"7:00pm"}, lebowski.Times)
}

func TestUnit_Laurelhurst_Extract_WeekdayLabel(t *testing.T) {
	server := MountGoldenTestServer(t, "laurelhurst")
	// Venue-local "today" is Friday the 20th; the blob's dateless "Saturday"
	// entry must resolve to the 21st.
	now := func() time.Time { return time.Date(2026, 2, 20, 10, 0, 0, 0, portlandTZ) }
	s := Laurelhurst(
		LaurelhurstWithBaseURL(server.URL),
		LaurelhurstWithClient(server.Client()),
		LaurelhurstWithNow(now),
	)
	day := time.Date(2026, 2, 21, 0, 0, 0, 0, portlandTZ)

	res, err := s.Extract(context.Background(), day)
	require.NoError(t, err, "Extract")
	require.Len(t, res.Sessions, 1)
	assert.Equal(t, "Eraserhead", res.Sessions[0].Title)
	assert.Equal(t, []string{"9:40pm"}, res.Sessions[0].Times)
}

func TestUnit_Laurelhurst_ResolveDay_SpringForward(t *testing.T) {
	// 2026-03-08 is the 23-hour spring-forward day; the next calendar day
	// must still resolve by label even though only 23 hours elapse.
	now := func() time.Time { return time.Date(2026, 3, 8, 10, 0, 0, 0, portlandTZ) }
	s := Laurelhurst(LaurelhurstWithNow(now)).(*laurelhurstExtractor)
	state := &laurelhurstState{Days: []laurelhurstDay{
		{Label: "Today", Films: []laurelhurstFilm{{Title: "Sunday Film", Times: []string{"7:00pm"}}}},
		{Label: "Monday", Films: []laurelhurstFilm{{Title: "Monday Film", Times: []string{"7:00pm"}}}},
	}}

	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, portlandTZ)
	d, ok := s.resolveDay(state, monday)
	require.True(t, ok)
	require.Len(t, d.Films, 1)
	assert.Equal(t, "Monday Film", d.Films[0].Title)

	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, portlandTZ)
	d, ok = s.resolveDay(state, sunday)
	require.True(t, ok)
	assert.Equal(t, "Sunday Film", d.Films[0].Title)
}

func TestUnit_Laurelhurst_Extract_NoScheduleForDate(t *testing.T) {
	server := MountGoldenTestServer(t, "laurelhurst")
	now := func() time.Time { return time.Date(2026, 2, 20, 10, 0, 0, 0, portlandTZ) }
	s := Laurelhurst(
		LaurelhurstWithBaseURL(server.URL),
		LaurelhurstWithClient(server.Client()),
		LaurelhurstWithNow(now),
	)
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, portlandTZ)

	res, err := s.Extract(context.Background(), day)
	require.NoError(t, err, "a date outside the posted schedule is not an error")
	assert.Empty(t, res.Sessions)
}

func TestUnit_Laurelhurst_ExtractState(t *testing.T) {
	_, err := extractLaurelhurstState("<html><body>no blob here</body></html>")
	require.ErrorIs(t, err, errNoPageState)

	state, err := extractLaurelhurstState(
		`<script>window.__INITIAL_STATE__ = {"days":[{"label":"Today","date":"2026-02-20","films":[]}]};</script>`)
	require.NoError(t, err)
	require.Len(t, state.Days, 1)
	assert.Equal(t, "2026-02-20", state.Days[0].Date)
}
