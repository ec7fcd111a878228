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
	"slices"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/google/uuid"

	"github.com/drewfead/marquee/internal"
	"github.com/drewfead/marquee/internal/browser"
)

type cinemagicExtractor struct {
	baseURL         string
	venue           internal.Venue
	uuidNamespace   uuid.UUID
	httpClient      *http.Client
	headlessBrowser browser.Interface
}

// CinemagicOption applies configuration to a Cinemagic extractor.
type CinemagicOption func(*cinemagicExtractor)

// CinemagicWithBaseURL sets the base URL for the extractor (e.g. httptest.Server.URL in tests).
func CinemagicWithBaseURL(baseURL string) CinemagicOption {
	return func(s *cinemagicExtractor) {
		s.baseURL = baseURL
	}
}

// CinemagicWithClient sets the HTTP client for the extractor (e.g. httptest.Server.Client() in tests).
// When set, the extractor uses direct HTTP instead of headless browser.
func CinemagicWithClient(client *http.Client) CinemagicOption {
	return func(s *cinemagicExtractor) {
		if client != nil {
			s.httpClient = client
			s.headlessBrowser = nil
		}
	}
}

// CinemagicWithBrowser injects the Browser used when extracting without an HTTP client.
func CinemagicWithBrowser(b browser.Interface) CinemagicOption {
	return func(s *cinemagicExtractor) {
		if b != nil {
			s.headlessBrowser = b
			s.httpClient = nil
		}
	}
}

func Cinemagic(opts ...CinemagicOption) internal.Extractor {
	s := &cinemagicExtractor{
		baseURL: defaultCinemagicBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.venue = internal.Venue{
		Slug: "cinemagic",
		Name: "Cinemagic",
		URL:  s.baseURL,
	}
	s.uuidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.baseURL))
	if s.headlessBrowser == nil && s.httpClient == nil {
		s.headlessBrowser = browser.Headless()
	}
	return s
}

const (
	defaultCinemagicBaseURL = "https://tickets.thecinemagictheater.com"
	cinemagicSiteIDInt      = 40
	cinemagicCircuitID      = "39"
	cinemagicSiteID         = "40"
)

var (
	errGraphQLRequestFailed          = errors.New("graphql request failed")
	errUnexpectedDatesResponseFormat = errors.New("unmarshal datesWithShowing: unexpected format")
)

const cinemagicDatesQuery = `query ($siteIds: [ID]) {
  datesWithShowing(siteIds: $siteIds) {
    value
  }
}`

const cinemagicShowingsQuery = `query ($date: String, $siteIds: [ID]) {
  showingsForDate(date: $date, siteIds: $siteIds) {
    data {
      id
      time
      published
      past
      displayMetaData
      movie {
        id
        name
        synopsis
        duration
        rating
        urlSlug
      }
    }
    count
  }
}`

// fetchPostJSONScript sends a POST GraphQL request from the page context with the required
// INDY Cinema Group headers (circuit-id, site-id, client-type). Without these the API returns 403.
const fetchPostJSONScript = `(url, body, circuitID, siteID) => {
	return fetch(url, {
		method: 'POST',
		headers: {
			'Content-Type': 'application/json',
			'circuit-id': circuitID,
			'site-id': siteID,
			'client-type': 'consumer',
			'is-electron-mode': 'false'
		},
		credentials: 'include',
		body: body
	}).then(r => {
		if (!r.ok) throw new Error('HTTP ' + r.status);
		return r.json();
	}).then(obj => JSON.stringify(obj));
}`

// waitForCookieScript polls document.cookie until the target cookie name appears (max ~10s).
// This ensures the SPA has fully initialized and server cookies are established.
const waitForCookieScript = `(cookieName) => {
	return new Promise((resolve, reject) => {
		let tries = 0;
		const check = () => {
			if (document.cookie.includes(cookieName + '=')) {
				resolve(true);
			} else if (tries++ > 100) {
				reject(new Error('cookie ' + cookieName + ' not found after 10s'));
			} else {
				setTimeout(check, 100);
			}
		};
		check();
	});
}`

func (s *cinemagicExtractor) Venue() internal.Venue {
	return s.venue
}

func (s *cinemagicExtractor) Extract(ctx context.Context, day time.Time) (internal.VenueResult, error) {
	dateKey := day.Format(time.DateOnly)
	available, body, err := s.fetchShowings(ctx, dateKey)
	if err != nil {
		return emptyResult(s.venue, ""), fmt.Errorf("failed to fetch data: %w", err)
	}
	if body == nil {
		// The venue lists no showings for this date; not an error.
		slog.Debug("cinemagic: date not listed", "date", dateKey, "available", len(available))
		return emptyResult(s.venue, ""), nil
	}
	return s.collectSessions(day, body), nil
}

func (s *cinemagicExtractor) collectSessions(day time.Time, body []byte) internal.VenueResult {
	var resp cinemagicGraphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Warn("cinemagic: failed to unmarshal response", "error", err)
		return emptyResult(s.venue, "")
	}

	// The API returns showings in creation order; sort by start so times
	// accumulate chronologically per film.
	showings := resp.Data.ShowingsForDate.Data
	slices.SortStableFunc(showings, func(a, b cinemagicShowing) int {
		return strings.Compare(a.Time, b.Time)
	})

	c := newSessionCollector(s.venue, s.uuidNamespace, day)
	var skipped int
	for _, showing := range showings {
		if !showing.Published {
			continue
		}
		startTime, err := time.Parse(time.RFC3339, showing.Time)
		if err != nil {
			skipped++
			continue
		}
		var deepLink string
		if showing.Movie.URLSlug != "" {
			deepLink = s.baseURL + "/movie/" + showing.Movie.URLSlug
		}
		if !c.add(showing.Movie.Name, startTime.In(portlandTZ).Format("3:04pm"), withURL(deepLink)) {
			skipped++
		}
	}
	res := c.result("")
	slog.Debug("cinemagic: extracted sessions",
		"date", day.Format(time.DateOnly), "sessions", len(res.Sessions), "skipped", skipped)
	return res
}

// PullGolden fetches showings for 7 days starting today, saving dates.json and {date}.json per date.
func (s *cinemagicExtractor) PullGolden(ctx context.Context, goldenDir string) error {
	now := time.Now().In(portlandTZ)
	files := make(map[string][]byte)
	for offset := range 7 {
		dateKey := now.AddDate(0, 0, offset).Format(time.DateOnly)
		_, body, err := s.fetchShowings(ctx, dateKey)
		if err != nil {
			return fmt.Errorf("failed to fetch golden data: %w", err)
		}
		if body != nil {
			files[dateKey] = body
		}
	}
	datesResp, err := s.fetchDatesRaw(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch golden dates: %w", err)
	}
	files["dates"] = datesResp
	return writeGoldenFiles(goldenDir, files)
}

func (s *cinemagicExtractor) MountGolden(_ context.Context, goldenDir string) (http.Handler, error) {
	datesResp, err := os.ReadFile(filepath.Join(goldenDir, "dates.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read dates golden file: %w", err)
	}

	entries, err := os.ReadDir(goldenDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden dir: %w", err)
	}
	goldenByDate := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || e.Name() == "dates.json" {
			continue
		}
		dateStr := strings.TrimSuffix(e.Name(), ".json")
		data, err := os.ReadFile(filepath.Join(goldenDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read golden file %s: %w", e.Name(), err)
		}
		goldenByDate[dateStr] = data
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/graphql" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("not found"))
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("bad request"))
			return
		}

		// Route by query: datesWithShowing vs showingsForDate.
		if strings.Contains(string(body), "datesWithShowing") {
			_, _ = w.Write(datesResp)
			return
		}

		var req struct {
			Variables struct {
				Date string `json:"date"`
			} `json:"variables"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("bad request"))
			return
		}
		data, ok := goldenByDate[req.Variables.Date]
		if !ok {
			_, _ = w.Write([]byte(`{"data":{"showingsForDate":{"data":[],"count":0}}}`))
			return
		}
		_, _ = w.Write(data)
	}), nil
}

// fetchShowings probes datesWithShowing to learn which dates have data, then
// fetches showingsForDate for the target date when it is listed. Returns the
// available dates and the raw showings response (nil when the date is absent).
func (s *cinemagicExtractor) fetchShowings(ctx context.Context, dateKey string) ([]string, []byte, error) {
	datesResp, err := s.fetchDatesRaw(ctx)
	if err != nil {
		return nil, nil, err
	}
	dates, err := parseCinemagicDates(datesResp)
	if err != nil {
		return nil, nil, err
	}
	if !slices.Contains(dates, dateKey) {
		return dates, nil, nil
	}
	showingsBody, err := s.showingsRequestBody(dateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal showingsForDate %s: %w", dateKey, err)
	}
	resp, err := s.postGraphQL(ctx, showingsBody)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch showingsForDate %s: %w", dateKey, err)
	}
	return dates, resp, nil
}

func (s *cinemagicExtractor) fetchDatesRaw(ctx context.Context) ([]byte, error) {
	datesBody, err := s.datesRequestBody()
	if err != nil {
		return nil, fmt.Errorf("marshal datesWithShowing: %w", err)
	}
	resp, err := s.postGraphQL(ctx, datesBody)
	if err != nil {
		return nil, fmt.Errorf("fetch datesWithShowing: %w", err)
	}
	return resp, nil
}

func (s *cinemagicExtractor) datesRequestBody() ([]byte, error) {
	return json.Marshal(map[string]any{
		"query": cinemagicDatesQuery,
		"variables": map[string]any{
			"siteIds": []int{cinemagicSiteIDInt},
		},
	})
}

func (s *cinemagicExtractor) showingsRequestBody(date string) ([]byte, error) {
	return json.Marshal(map[string]any{
		"query": cinemagicShowingsQuery,
		"variables": map[string]any{
			"date":    date,
			"siteIds": []int{cinemagicSiteIDInt},
		},
	})
}

func (s *cinemagicExtractor) graphqlURL() string {
	u, _ := url.Parse(s.baseURL)
	u.Path = "/graphql"
	return u.String()
}

// postGraphQL sends a GraphQL request via httpClient or, when running with a
// headless browser, via fetch() from the page context.
func (s *cinemagicExtractor) postGraphQL(ctx context.Context, body []byte) ([]byte, error) {
	if s.httpClient != nil {
		return s.postGraphQLViaHTTP(ctx, body)
	}
	return s.postGraphQLViaHeadlessBrowser(ctx, body)
}

func (s *cinemagicExtractor) postGraphQLViaHTTP(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.graphqlURL(), strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Circuit-Id", cinemagicCircuitID)
	req.Header.Set("Site-Id", cinemagicSiteID)
	req.Header.Set("Client-Type", "consumer")
	req.Header.Set("Is-Electron-Mode", "false")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", errGraphQLRequestFailed, resp.Status)
	}
	return respBody, nil
}

func (s *cinemagicExtractor) postGraphQLViaHeadlessBrowser(ctx context.Context, body []byte) ([]byte, error) {
	var result []byte
	homeURL := s.baseURL + "/"
	gqlURL := s.graphqlURL()
	err := s.headlessBrowser.WithPage(ctx, homeURL, func(page *rod.Page) error {
		// Wait for the Ahoy visit cookie — set by the SPA's JS after full initialization.
		if _, err := page.Context(ctx).Timeout(browser.PageStableTimeout).Eval(waitForCookieScript, "ahoy_visit"); err != nil {
			slog.Warn("cinemagic: cookie wait failed, proceeding anyway", "error", err)
		}
		res, err := page.Context(ctx).Timeout(browser.PageStableTimeout).Eval(
			fetchPostJSONScript, gqlURL, string(body), cinemagicCircuitID, cinemagicSiteID,
		)
		if err != nil {
			return err
		}
		result = []byte(res.Value.Str())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// parseCinemagicDates extracts date strings from a datesWithShowing GraphQL response.
// The API returns {data: {datesWithShowing: {value: "[\"2026-02-20\",...]"}}}
// where the value field is a JSON-encoded string array.
func parseCinemagicDates(body []byte) ([]string, error) {
	var resp struct {
		Data struct {
			DatesWithShowing struct {
				Value string `json:"value"`
			} `json:"datesWithShowing"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal datesWithShowing envelope: %w", err)
	}
	var dates []string
	if err := json.Unmarshal([]byte(resp.Data.DatesWithShowing.Value), &dates); err != nil {
		return nil, fmt.Errorf("%w: %s", errUnexpectedDatesResponseFormat, resp.Data.DatesWithShowing.Value)
	}
	return dates, nil
}

// cinemagicGraphQLResponse is the top-level GraphQL response.
type cinemagicGraphQLResponse struct {
	Data struct {
		ShowingsForDate struct {
			Data  []cinemagicShowing `json:"data"`
			Count int                `json:"count"`
		} `json:"showingsForDate"`
	} `json:"data"`
}

type cinemagicShowing struct {
	ID              string         `json:"id"`
	Time            string         `json:"time"`
	Published       bool           `json:"published"`
	Past            bool           `json:"past"`
	DisplayMetaData string         `json:"displayMetaData"`
	Movie           cinemagicMovie `json:"movie"`
}

type cinemagicMovie struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Synopsis string `json:"synopsis"`
	Duration int    `json:"duration"`
	Rating   string `json:"rating"`
	URLSlug  string `json:"urlSlug"`
}
