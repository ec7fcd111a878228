package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/google/uuid"

	"github.com/drewfead/marquee/internal"
	"github.com/drewfead/marquee/internal/browser"
)

type hollywoodExtractor struct {
	baseURL         string
	venue           internal.Venue
	uuidNamespace   uuid.UUID
	httpClient      *http.Client      // non-nil = test mode (skip rod)
	headlessBrowser browser.Interface // nil = use browser.Headless()
}

// HollywoodOption applies configuration to a Hollywood Theatre extractor.
type HollywoodOption func(*hollywoodExtractor)

// WithBaseURL sets the base URL for the extractor (e.g. httptest.Server.URL in tests).
func WithBaseURL(baseURL string) HollywoodOption {
	return func(s *hollywoodExtractor) {
		s.baseURL = baseURL
	}
}

// WithClient sets the HTTP client for the extractor (e.g. httptest.Server.Client() in tests).
// When set, the extractor uses direct HTTP instead of headless browser.
func WithClient(client *http.Client) HollywoodOption {
	return func(s *hollywoodExtractor) {
		if client != nil {
			s.httpClient = client
			s.headlessBrowser = nil
		}
	}
}

// WithBrowser injects the Browser used when extracting without an HTTP client.
func WithBrowser(b browser.Interface) HollywoodOption {
	return func(s *hollywoodExtractor) {
		if b != nil {
			s.headlessBrowser = b
			s.httpClient = nil
		}
	}
}

func Hollywood(opts ...HollywoodOption) internal.Extractor {
	s := &hollywoodExtractor{
		baseURL: defaultHollywoodBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.venue = internal.Venue{
		Slug: "hollywood",
		Name: "Hollywood Theatre",
		URL:  s.baseURL,
	}
	s.uuidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.baseURL))
	if s.headlessBrowser == nil && s.httpClient == nil {
		s.headlessBrowser = browser.Headless()
	}
	return s
}

const (
	defaultHollywoodBaseURL = "https://www.hollywoodtheatre.org"
	hollywoodNote           = "70mm and 35mm presentations flagged as premium"
	portlandLocale          = "en_US"
	portlandTimezoneCode    = "America/Los_Angeles"
)

var portlandTZ *time.Location

func init() {
	var err error
	portlandTZ, err = time.LoadLocation(portlandTimezoneCode)
	if err != nil {
		portlandTZ = time.UTC
	}
}

func (s *hollywoodExtractor) Venue() internal.Venue {
	return s.venue
}

func (s *hollywoodExtractor) Extract(ctx context.Context, day time.Time) (internal.VenueResult, error) {
	allJSON, err := s.fetchAllData(ctx)
	if err != nil {
		return emptyResult(s.venue, hollywoodNote), fmt.Errorf("failed to fetch data: %w", err)
	}

	var allShows []hollywoodShow
	for _, view := range hollywoodShowListViews {
		body, ok := allJSON[view]
		if !ok {
			continue
		}
		var payload hollywoodShowListResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return emptyResult(s.venue, hollywoodNote), fmt.Errorf("failed to unmarshal %s: %w", view, err)
		}
		allShows = append(allShows, payload.Shows...)
	}

	dateKey := day.Format(time.DateOnly)
	c := newSessionCollector(s.venue, s.uuidNamespace, day)
	var skipped int
	for _, show := range allShows {
		if show.HideEvents || show.QueryDate != dateKey {
			continue
		}
		opts := []listingOption{withURL(show.Permalink)}
		if hollywoodPremiumFormat(show.Format) {
			opts = append(opts, asPremium())
		}
		for _, ev := range show.Events {
			if ev.StartTime == "" {
				skipped++
				continue
			}
			if !c.add(show.Title, ev.StartTime, opts...) {
				skipped++
			}
		}
	}
	res := c.result(hollywoodNote)
	slog.Debug("hollywood: extracted sessions",
		"date", dateKey, "sessions", len(res.Sessions), "skipped", skipped)
	return res, nil
}

// hollywoodPremiumFormat reports whether a show-list format string marks a
// premium film-format presentation.
func hollywoodPremiumFormat(format string) bool {
	f := strings.ToLower(format)
	return strings.Contains(f, "70mm") || strings.Contains(f, "35mm")
}

// PullGolden fetches show-list views (today, coming-soon) and writes golden files.
func (s *hollywoodExtractor) PullGolden(ctx context.Context, goldenDir string) error {
	allJSON, err := s.fetchAllData(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch golden data: %w", err)
	}
	return writeGoldenFiles(goldenDir, allJSON)
}

func (s *hollywoodExtractor) MountGolden(_ context.Context, goldenDir string) (http.Handler, error) {
	today, _ := os.ReadFile(filepath.Join(goldenDir, "today.json"))
	comingSoon, _ := os.ReadFile(filepath.Join(goldenDir, "coming-soon.json"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/wp-json/gecko-theme/v1/show-list" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("not found"))
			return
		}
		switch r.URL.Query().Get("view") {
		case "today":
			if len(today) == 0 {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte("not found (golden file not found: today.json)"))
				return
			}
			_, _ = w.Write(today)
		case "coming-soon":
			if len(comingSoon) == 0 {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte("not found (golden file not found: coming-soon.json)"))
				return
			}
			_, _ = w.Write(comingSoon)
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("invalid view"))
		}
	}), nil
}

// fetchAllData returns show-list JSON keyed by view name.
func (s *hollywoodExtractor) fetchAllData(ctx context.Context) (map[string][]byte, error) {
	if s.httpClient != nil {
		return s.fetchAllViaHTTP(ctx)
	}
	return s.fetchAllViaHeadlessBrowser(ctx)
}

func (s *hollywoodExtractor) fetchAllViaHTTP(ctx context.Context) (map[string][]byte, error) {
	results := make(map[string][]byte, len(hollywoodShowListViews))
	for _, view := range hollywoodShowListViews {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.showListURL(view, portlandLocale), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request for %s: %w", view, err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", view, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s response: %w", view, err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to get %s: %s", view, resp.Status)
		}
		results[view] = body
	}
	return results, nil
}

func (s *hollywoodExtractor) fetchAllViaHeadlessBrowser(ctx context.Context) (map[string][]byte, error) {
	var results map[string][]byte
	homeURL := s.baseURL + "/"
	err := s.headlessBrowser.WithPage(ctx, homeURL, func(page *rod.Page) error {
		results = make(map[string][]byte, len(hollywoodShowListViews))
		for _, view := range hollywoodShowListViews {
			var raw json.RawMessage
			if err := s.headlessBrowser.FetchJSON(ctx, s.showListURL(view, portlandLocale), &raw)(page); err != nil {
				return fmt.Errorf("fetch %s: %w", view, err)
			}
			results[view] = raw
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

var hollywoodShowListViews = []string{"today", "coming-soon"}

func (s *hollywoodExtractor) showListURL(view string, locale string) string {
	u, _ := url.Parse(s.baseURL)
	u.Path = "/wp-json/gecko-theme/v1/show-list"
	q := u.Query()
	q.Set("view", view)
	q.Set("locale", locale)
	u.RawQuery = q.Encode()
	return u.String()
}

// hollywoodShowListResponse matches golden/hollywood/coming-soon.json from
// /wp-json/gecko-theme/v1/show-list?view=coming-soon&locale=en_US
type hollywoodShowListResponse struct {
	Shows []hollywoodShow `json:"shows"`
}

type hollywoodShow struct {
	ShowPostID  string           `json:"show_post_id"`
	Title       string           `json:"title"`
	Permalink   string           `json:"permalink"`
	DisplayDate string           `json:"display_date"`
	QueryDate   string           `json:"query_date"`
	Format      string           `json:"format"`
	HideEvents  bool             `json:"hide_events"`
	Events      []hollywoodEvent `json:"events"`
}

type hollywoodEvent struct {
	ID        int    `json:"id"`
	StartTime string `json:"start_time"`
}
