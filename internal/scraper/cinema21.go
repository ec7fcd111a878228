package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/google/uuid"

	"github.com/drewfead/marquee/internal"
	"github.com/drewfead/marquee/internal/browser"
)

type cinema21Extractor struct {
	baseURL         string
	venue           internal.Venue
	uuidNamespace   uuid.UUID
	httpClient      *http.Client
	headlessBrowser browser.Interface
}

// Cinema21Option applies configuration to a Cinema 21 extractor.
type Cinema21Option func(*cinema21Extractor)

// Cinema21WithBaseURL sets the base URL for the extractor (e.g. httptest.Server.URL in tests).
func Cinema21WithBaseURL(baseURL string) Cinema21Option {
	return func(s *cinema21Extractor) {
		s.baseURL = baseURL
	}
}

// Cinema21WithClient sets the HTTP client for the extractor (e.g. httptest.Server.Client() in tests).
func Cinema21WithClient(client *http.Client) Cinema21Option {
	return func(s *cinema21Extractor) {
		if client != nil {
			s.httpClient = client
			s.headlessBrowser = nil
		}
	}
}

// Cinema21WithBrowser injects the Browser used when extracting without an HTTP client.
func Cinema21WithBrowser(b browser.Interface) Cinema21Option {
	return func(s *cinema21Extractor) {
		if b != nil {
			s.headlessBrowser = b
			s.httpClient = nil
		}
	}
}

func Cinema21(opts ...Cinema21Option) internal.Extractor {
	s := &cinema21Extractor{
		baseURL: defaultCinema21BaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.venue = internal.Venue{
		Slug: "cinema21",
		Name: "Cinema 21",
		URL:  s.baseURL,
	}
	s.uuidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.baseURL))
	// Cinema 21's API is accessible via plain HTTP — no browser needed by default.
	if s.headlessBrowser == nil && s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	return s
}

const defaultCinema21BaseURL = "https://www.cinema21.com"

var errHTTPRequestFailed = errors.New("http request failed")

func (s *cinema21Extractor) Venue() internal.Venue {
	return s.venue
}

func (s *cinema21Extractor) Extract(ctx context.Context, day time.Time) (internal.VenueResult, error) {
	data, err := s.fetchPlayingNow(ctx)
	if err != nil {
		return emptyResult(s.venue, ""), fmt.Errorf("failed to fetch data: %w", err)
	}

	movies, err := parseCinema21Movies(data)
	if err != nil {
		return emptyResult(s.venue, ""), err
	}

	dateKey := day.Format(time.DateOnly)
	c := newSessionCollector(s.venue, s.uuidNamespace, day)
	var skipped int
	for _, movie := range movies {
		var deepLink string
		if movie.URL != "" {
			deepLink = s.baseURL + "/movie/" + movie.URL
		}
		for _, session := range movie.SessionTimes {
			if session.Date != dateKey {
				continue
			}
			if session.Time == "" {
				skipped++
				continue
			}
			link := deepLink
			if session.BookingLink != "" {
				link = session.BookingLink
			}
			if !c.add(movie.Title, session.Time, withURL(link)) {
				skipped++
			}
		}
	}
	res := c.result("")
	slog.Debug("cinema21: extracted sessions",
		"date", dateKey, "sessions", len(res.Sessions), "skipped", skipped)
	return res, nil
}

// parseCinema21Movies decodes the playing-now payload. The endpoint has been
// observed as a bare array and as an object wrapping the array under "movies"
// or "data"; each known wrapper key is probed before giving up.
func parseCinema21Movies(data []byte) ([]cinema21Movie, error) {
	var movies []cinema21Movie
	if err := json.Unmarshal(data, &movies); err == nil {
		return movies, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("unmarshal playing-now: %w", err)
	}
	for _, key := range []string{"movies", "data", "results"} {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &movies); err == nil {
			return movies, nil
		}
	}
	return nil, errors.New("playing-now: no recognized wrapper key")
}

// PullGolden fetches playing-now and saves it as golden data.
func (s *cinema21Extractor) PullGolden(ctx context.Context, goldenDir string) error {
	data, err := s.fetchPlayingNow(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch golden data: %w", err)
	}
	return writeGoldenFiles(goldenDir, map[string][]byte{
		"playing-now": data,
	})
}

func (s *cinema21Extractor) MountGolden(_ context.Context, goldenDir string) (http.Handler, error) {
	playingNow, err := os.ReadFile(filepath.Join(goldenDir, "playing-now.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read playing-now golden file: %w", err)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/movie/playing-now" && r.Method == http.MethodGet {
			_, _ = w.Write(playingNow)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	}), nil
}

func (s *cinema21Extractor) playingNowURL() string {
	u, _ := url.Parse(s.baseURL)
	u.Path = "/api/movie/playing-now"
	return u.String()
}

func (s *cinema21Extractor) fetchPlayingNow(ctx context.Context) ([]byte, error) {
	if s.httpClient != nil {
		return s.fetchPlayingNowViaHTTP(ctx)
	}
	return s.fetchPlayingNowViaHeadlessBrowser(ctx)
}

func (s *cinema21Extractor) fetchPlayingNowViaHTTP(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.playingNowURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get playing-now: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", errHTTPRequestFailed, resp.Status)
	}
	return body, nil
}

func (s *cinema21Extractor) fetchPlayingNowViaHeadlessBrowser(ctx context.Context) ([]byte, error) {
	var result []byte
	homeURL := s.baseURL + "/"
	apiURL := s.playingNowURL()

	err := s.headlessBrowser.WithPage(ctx, homeURL, func(page *rod.Page) error {
		var raw json.RawMessage
		if err := s.headlessBrowser.FetchJSON(ctx, apiURL, &raw)(page); err != nil {
			return fmt.Errorf("fetch playing-now: %w", err)
		}
		result = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// cinema21Movie represents a movie from the /api/movie/playing-now response.
type cinema21Movie struct {
	URL           string            `json:"url"`
	Title         string            `json:"title"`
	Reference     string            `json:"reference"`
	Duration      string            `json:"duration"`
	SynopsisShort string            `json:"synopsisShort"`
	SessionTimes  []cinema21Session `json:"sessionTimes"`
	Trailer       string            `json:"trailer"`
}

// cinema21Session represents a single showtime session.
type cinema21Session struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	BookingLink string `json:"bookingLink"`
	IsSoldOut   bool   `json:"isSoldOut"`
	ID          string `json:"_id"`
}
