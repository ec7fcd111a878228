package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/drewfead/marquee/internal"
	"github.com/drewfead/marquee/internal/browser"
)

type bagdadExtractor struct {
	baseURL         string
	venue           internal.Venue
	uuidNamespace   uuid.UUID
	httpClient      *http.Client
	headlessBrowser browser.Interface
}

// BagdadOption applies configuration to a Bagdad Theater extractor.
type BagdadOption func(*bagdadExtractor)

// BagdadWithBaseURL sets the base URL for the extractor (e.g. httptest.Server.URL in tests).
func BagdadWithBaseURL(baseURL string) BagdadOption {
	return func(s *bagdadExtractor) {
		s.baseURL = baseURL
	}
}

// BagdadWithClient sets the HTTP client for the extractor (e.g. httptest.Server.Client() in tests).
func BagdadWithClient(client *http.Client) BagdadOption {
	return func(s *bagdadExtractor) {
		if client != nil {
			s.httpClient = client
			s.headlessBrowser = nil
		}
	}
}

// BagdadWithBrowser injects the Browser used when extracting without an HTTP client.
func BagdadWithBrowser(b browser.Interface) BagdadOption {
	return func(s *bagdadExtractor) {
		if b != nil {
			s.headlessBrowser = b
			s.httpClient = nil
		}
	}
}

func Bagdad(opts ...BagdadOption) internal.Extractor {
	s := &bagdadExtractor{
		baseURL: defaultBagdadBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.venue = internal.Venue{
		Slug: "bagdad",
		Name: "Bagdad Theater",
		URL:  s.baseURL,
	}
	s.uuidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.baseURL))
	if s.headlessBrowser == nil && s.httpClient == nil {
		s.headlessBrowser = browser.Headless()
	}
	return s
}

const defaultBagdadBaseURL = "https://www.mcmenamins.com/bagdad-theater"

func (s *bagdadExtractor) Venue() internal.Venue {
	return s.venue
}

func (s *bagdadExtractor) Extract(ctx context.Context, day time.Time) (internal.VenueResult, error) {
	html, err := s.fetchMoviesPage(ctx)
	if err != nil {
		return emptyResult(s.venue, ""), fmt.Errorf("failed to fetch page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return emptyResult(s.venue, ""), fmt.Errorf("parse page: %w", err)
	}

	dateKey := day.Format(time.DateOnly)
	c := newSessionCollector(s.venue, s.uuidNamespace, day)
	var skipped int

	// One table row per screening, tagged with the calendar day. Times come
	// through as 24-hour clock values, occasionally a free-form note like
	// "see website" instead.
	doc.Find(fmt.Sprintf(`tr[data-date=%q]`, dateKey)).Each(func(_ int, row *goquery.Selection) {
		title := strings.TrimSpace(row.Find(".movie-title").First().Text())
		if title == "" {
			skipped++
			return
		}
		var deepLink string
		if href, ok := row.Find(".movie-title a").First().Attr("href"); ok {
			deepLink = s.resolveLink(href)
		}
		raw := strings.TrimSpace(row.Find(".movie-time").First().Text())
		if !c.add(title, raw, withURL(deepLink)) {
			skipped++
		}
	})

	res := c.result("")
	slog.Debug("bagdad: extracted sessions",
		"date", dateKey, "sessions", len(res.Sessions), "skipped", skipped)
	return res, nil
}

func (s *bagdadExtractor) resolveLink(href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// PullGolden captures the rendered movies page as golden markup.
func (s *bagdadExtractor) PullGolden(ctx context.Context, goldenDir string) error {
	html, err := s.fetchMoviesPage(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch golden data: %w", err)
	}
	return writeGoldenPages(goldenDir, map[string][]byte{
		"movies": []byte(html),
	})
}

func (s *bagdadExtractor) MountGolden(_ context.Context, goldenDir string) (http.Handler, error) {
	page, err := os.ReadFile(filepath.Join(goldenDir, "movies.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to read movies golden page: %w", err)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}), nil
}

func (s *bagdadExtractor) moviesURL() string {
	return s.baseURL + "/movies"
}

func (s *bagdadExtractor) fetchMoviesPage(ctx context.Context) (string, error) {
	if s.httpClient != nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.moviesURL(), nil)
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("get movies page: %w", err)
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
	return s.headlessBrowser.RenderedHTML(ctx, s.moviesURL())
}
