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

type academyExtractor struct {
	baseURL         string
	venue           internal.Venue
	uuidNamespace   uuid.UUID
	httpClient      *http.Client
	headlessBrowser browser.Interface
}

// AcademyOption applies configuration to an Academy Theater extractor.
type AcademyOption func(*academyExtractor)

// AcademyWithBaseURL sets the base URL for the extractor (e.g. httptest.Server.URL in tests).
func AcademyWithBaseURL(baseURL string) AcademyOption {
	return func(s *academyExtractor) {
		s.baseURL = baseURL
	}
}

// AcademyWithClient sets the HTTP client for the extractor (e.g. httptest.Server.Client() in tests).
func AcademyWithClient(client *http.Client) AcademyOption {
	return func(s *academyExtractor) {
		if client != nil {
			s.httpClient = client
			s.headlessBrowser = nil
		}
	}
}

// AcademyWithBrowser injects the Browser used when extracting without an HTTP client.
func AcademyWithBrowser(b browser.Interface) AcademyOption {
	return func(s *academyExtractor) {
		if b != nil {
			s.headlessBrowser = b
			s.httpClient = nil
		}
	}
}

func Academy(opts ...AcademyOption) internal.Extractor {
	s := &academyExtractor{
		baseURL: defaultAcademyBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.venue = internal.Venue{
		Slug: "academy",
		Name: "Academy Theater",
		URL:  s.baseURL,
	}
	s.uuidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.baseURL))
	if s.headlessBrowser == nil && s.httpClient == nil {
		s.headlessBrowser = browser.Headless()
	}
	return s
}

const (
	defaultAcademyBaseURL = "https://www.academytheaterpdx.com"
	academyNote           = "second-run house; double features listed as one program"
)

// academyDoubleFeatureSeparators are the title separators the Academy uses
// for double bills, in preference order.
var academyDoubleFeatureSeparators = []string{" + ", " & "}

func (s *academyExtractor) Venue() internal.Venue {
	return s.venue
}

func (s *academyExtractor) Extract(ctx context.Context, day time.Time) (internal.VenueResult, error) {
	html, err := s.fetchShowtimesPage(ctx)
	if err != nil {
		return emptyResult(s.venue, academyNote), fmt.Errorf("failed to fetch page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return emptyResult(s.venue, academyNote), fmt.Errorf("parse page: %w", err)
	}

	dateKey := day.Format(time.DateOnly)
	c := newSessionCollector(s.venue, s.uuidNamespace, day)
	var skipped int

	// One section of film cards per calendar day, keyed by section id.
	section := doc.Find("#showtimes-" + dateKey)
	section.Find(".film-card").Each(func(_ int, card *goquery.Selection) {
		titleLink := card.Find(".film-title a").First()
		title := strings.TrimSpace(titleLink.Text())
		if title == "" {
			// Some cards title the heading directly with no link.
			title = strings.TrimSpace(card.Find(".film-title").First().Text())
		}
		if title == "" {
			skipped++
			return
		}
		var deepLink string
		if href, ok := titleLink.Attr("href"); ok {
			deepLink = s.resolveLink(href)
		}
		opts := []listingOption{withURL(deepLink)}
		if isAcademyDoubleFeature(title) {
			opts = append(opts, asDoubleFeature())
		}
		var added bool
		card.Find(".showtime").Each(func(_ int, st *goquery.Selection) {
			if raw := strings.TrimSpace(st.Text()); raw != "" {
				c.add(title, raw, opts...)
				added = true
			}
		})
		if !added {
			// Card with no listed times still appears in the feed with a
			// landing-page link; the site sometimes posts programs early.
			c.add(title, "", opts...)
		}
	})

	res := c.result(academyNote)
	slog.Debug("academy: extracted sessions",
		"date", dateKey, "sessions", len(res.Sessions), "skipped", skipped)
	return res, nil
}

func isAcademyDoubleFeature(title string) bool {
	for _, sep := range academyDoubleFeatureSeparators {
		if strings.Contains(title, sep) {
			return true
		}
	}
	return false
}

// resolveLink makes venue-relative hrefs absolute.
func (s *academyExtractor) resolveLink(href string) string {
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

// PullGolden captures the rendered showtimes page as golden markup.
func (s *academyExtractor) PullGolden(ctx context.Context, goldenDir string) error {
	html, err := s.fetchShowtimesPage(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch golden data: %w", err)
	}
	return writeGoldenPages(goldenDir, map[string][]byte{
		"showtimes": []byte(html),
	})
}

func (s *academyExtractor) MountGolden(_ context.Context, goldenDir string) (http.Handler, error) {
	page, err := os.ReadFile(filepath.Join(goldenDir, "showtimes.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to read showtimes golden page: %w", err)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/showtimes" && r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("not found"))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}), nil
}

func (s *academyExtractor) showtimesURL() string {
	u, _ := url.Parse(s.baseURL)
	u.Path = "/showtimes"
	return u.String()
}

func (s *academyExtractor) fetchShowtimesPage(ctx context.Context) (string, error) {
	if s.httpClient != nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.showtimesURL(), nil)
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("get showtimes: %w", err)
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
	return s.headlessBrowser.RenderedHTML(ctx, s.showtimesURL())
}
