package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/drewfead/marquee/internal"
	"github.com/drewfead/marquee/internal/browser"
)

type laurelhurstExtractor struct {
	baseURL         string
	venue           internal.Venue
	uuidNamespace   uuid.UUID
	httpClient      *http.Client
	headlessBrowser browser.Interface
	now             func() time.Time
}

// LaurelhurstOption applies configuration to a Laurelhurst Theater extractor.
type LaurelhurstOption func(*laurelhurstExtractor)

// LaurelhurstWithBaseURL sets the base URL for the extractor (e.g. httptest.Server.URL in tests).
func LaurelhurstWithBaseURL(baseURL string) LaurelhurstOption {
	return func(s *laurelhurstExtractor) {
		s.baseURL = baseURL
	}
}

// LaurelhurstWithClient sets the HTTP client for the extractor (e.g. httptest.Server.Client() in tests).
func LaurelhurstWithClient(client *http.Client) LaurelhurstOption {
	return func(s *laurelhurstExtractor) {
		if client != nil {
			s.httpClient = client
			s.headlessBrowser = nil
		}
	}
}

// LaurelhurstWithBrowser injects the Browser used when extracting without an HTTP client.
func LaurelhurstWithBrowser(b browser.Interface) LaurelhurstOption {
	return func(s *laurelhurstExtractor) {
		if b != nil {
			s.headlessBrowser = b
			s.httpClient = nil
		}
	}
}

// LaurelhurstWithNow overrides the clock used to resolve relative day labels
// ("Today", "Tomorrow", weekday names) against the target date. For tests.
func LaurelhurstWithNow(now func() time.Time) LaurelhurstOption {
	return func(s *laurelhurstExtractor) {
		if now != nil {
			s.now = now
		}
	}
}

func Laurelhurst(opts ...LaurelhurstOption) internal.Extractor {
	s := &laurelhurstExtractor{
		baseURL: defaultLaurelhurstBaseURL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.venue = internal.Venue{
		Slug: "laurelhurst",
		Name: "Laurelhurst Theater",
		URL:  s.baseURL,
	}
	s.uuidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.baseURL))
	if s.headlessBrowser == nil && s.httpClient == nil {
		s.headlessBrowser = browser.Headless()
	}
	return s
}

const defaultLaurelhurstBaseURL = "https://www.laurelhursttheater.com"

var errNoPageState = errors.New("page state blob not found")

// laurelhurstStatePats match the embedded page-state blob. The site has
// shipped it both as a JSON script tag and as a window assignment.
var laurelhurstStatePats = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<script[^>]+id="__STATE__"[^>]*>(.*?)</script>`),
	regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.*?\});?\s*</script>`),
}

func (s *laurelhurstExtractor) Venue() internal.Venue {
	return s.venue
}

func (s *laurelhurstExtractor) Extract(ctx context.Context, day time.Time) (internal.VenueResult, error) {
	html, err := s.fetchHomePage(ctx)
	if err != nil {
		return emptyResult(s.venue, ""), fmt.Errorf("failed to fetch page: %w", err)
	}
	state, err := extractLaurelhurstState(html)
	if err != nil {
		return emptyResult(s.venue, ""), err
	}

	dateKey := day.Format(time.DateOnly)
	scheduleDay, ok := s.resolveDay(state, day)
	if !ok {
		slog.Debug("laurelhurst: no schedule for date", "date", dateKey)
		return emptyResult(s.venue, ""), nil
	}

	c := newSessionCollector(s.venue, s.uuidNamespace, day)
	var skipped int
	for _, film := range scheduleDay.Films {
		var deepLink string
		if film.Slug != "" {
			deepLink = s.baseURL + "/movie/" + film.Slug
		}
		if len(film.Times) == 0 {
			skipped++
			continue
		}
		for _, raw := range film.Times {
			if !c.add(film.Title, raw, withURL(deepLink)) {
				skipped++
			}
		}
	}
	res := c.result("")
	slog.Debug("laurelhurst: extracted sessions",
		"date", dateKey, "sessions", len(res.Sessions), "skipped", skipped)
	return res, nil
}

// resolveDay finds the schedule day matching the target date: exact ISO date
// first, then a relative label ("Today", "Tomorrow", or a weekday name)
// resolved against the venue-local current day. Weekday labels only resolve
// within the next week; the site never schedules further out.
func (s *laurelhurstExtractor) resolveDay(state *laurelhurstState, day time.Time) (laurelhurstDay, bool) {
	dateKey := day.Format(time.DateOnly)
	for _, d := range state.Days {
		if d.Date == dateKey {
			return d, true
		}
	}
	// Calendar-day offset, not elapsed hours: DST transition days are 23 or
	// 25 hours long and hour arithmetic would land on the wrong day.
	today := s.now().In(portlandTZ)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, portlandTZ)
	offset := -1
	for n := 0; n < 7; n++ {
		if today.AddDate(0, 0, n).Format(time.DateOnly) == dateKey {
			offset = n
			break
		}
	}
	if offset < 0 {
		return laurelhurstDay{}, false
	}
	for _, d := range state.Days {
		if d.Date != "" {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(d.Label))
		switch {
		case label == "today" && offset == 0,
			label == "tomorrow" && offset == 1:
			return d, true
		case label == strings.ToLower(day.Format("Monday")):
			return d, true
		}
	}
	return laurelhurstDay{}, false
}

// extractLaurelhurstState pulls the embedded schedule blob out of the page
// markup and probes the known wrapper keys for the day list.
func extractLaurelhurstState(html string) (*laurelhurstState, error) {
	var blob []byte
	for _, pat := range laurelhurstStatePats {
		if ms := pat.FindStringSubmatch(html); ms != nil {
			blob = []byte(strings.TrimSpace(ms[1]))
			break
		}
	}
	if blob == nil {
		return nil, errNoPageState
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(blob, &wrapped); err != nil {
		return nil, fmt.Errorf("unmarshal page state: %w", err)
	}
	for _, key := range []string{"schedule", "showtimes", "calendar"} {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		var state laurelhurstState
		if err := json.Unmarshal(raw, &state); err == nil && len(state.Days) > 0 {
			return &state, nil
		}
	}
	// Some builds put days at the top level.
	var state laurelhurstState
	if err := json.Unmarshal(blob, &state); err == nil && len(state.Days) > 0 {
		return &state, nil
	}
	return nil, fmt.Errorf("%w: no recognized wrapper key", errNoPageState)
}

// PullGolden captures the rendered home page (which embeds the schedule blob).
func (s *laurelhurstExtractor) PullGolden(ctx context.Context, goldenDir string) error {
	html, err := s.fetchHomePage(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch golden data: %w", err)
	}
	return writeGoldenPages(goldenDir, map[string][]byte{
		"home": []byte(html),
	})
}

func (s *laurelhurstExtractor) MountGolden(_ context.Context, goldenDir string) (http.Handler, error) {
	page, err := os.ReadFile(filepath.Join(goldenDir, "home.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to read home golden page: %w", err)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}), nil
}

func (s *laurelhurstExtractor) fetchHomePage(ctx context.Context) (string, error) {
	homeURL := s.baseURL + "/"
	if s.httpClient != nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, homeURL, nil)
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("get home page: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("%w: %s", errHTTPRequestFailed, resp.Status)
		}
		return string(body), nil
	}
	return s.headlessBrowser.RenderedHTML(ctx, homeURL)
}

// laurelhurstState is the schedule portion of the embedded page-state blob.
type laurelhurstState struct {
	Days []laurelhurstDay `json:"days"`
}

type laurelhurstDay struct {
	Label string            `json:"label"` // "Today", "Tomorrow", or a weekday name
	Date  string            `json:"date"`  // YYYY-MM-DD when present
	Films []laurelhurstFilm `json:"films"`
}

type laurelhurstFilm struct {
	Title string   `json:"title"`
	Slug  string   `json:"slug"`
	Times []string `json:"times"`
}
