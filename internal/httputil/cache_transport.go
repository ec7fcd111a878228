package httputil

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
)

const defaultLRUMaxEntries = 256

// CacheTransport is an http.RoundTripper that caches GET responses by
// request key (Method + URL) for the life of the process. Venue extractors
// share clients built on it so a feed run that visits the same endpoint for
// several dates (e.g. a playing-now API that covers the whole week) fetches
// it once. Hits are served from memory; misses forward to Base and are
// cached on 2xx.
type CacheTransport struct {
	Base http.RoundTripper

	// MaxEntries is the maximum number of responses to keep in the cache (LRU eviction).
	// Zero means defaultLRUMaxEntries.
	MaxEntries int

	// OnCacheHit, if set, is called for every RoundTrip with the cache key and whether it was a hit.
	OnCacheHit func(cacheKey string, hit bool)

	initOnce sync.Once
	cache    *lru.Cache[string, *cachedResponse]
	initErr  error
}

type cachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

func (t *CacheTransport) ensureCache() error {
	t.initOnce.Do(func() {
		max := t.MaxEntries
		if max <= 0 {
			max = defaultLRUMaxEntries
		}
		t.cache, t.initErr = lru.New[string, *cachedResponse](max)
	})
	return t.initErr
}

// RoundTrip implements http.RoundTripper.
func (t *CacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.ensureCache(); err != nil {
		return nil, err
	}
	key := req.Method + " " + req.URL.String()
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if entry, ok := t.cache.Get(key); ok {
		if t.OnCacheHit != nil {
			t.OnCacheHit(key, true)
		}
		return t.responseFromCache(req, entry), nil
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if t.OnCacheHit != nil {
		t.OnCacheHit(key, false)
	}
	// Only cache GET with 2xx.
	if req.Method != http.MethodGet || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	t.cache.Add(key, &cachedResponse{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	})
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

func (t *CacheTransport) responseFromCache(req *http.Request, entry *cachedResponse) *http.Response {
	return &http.Response{
		Status:        http.StatusText(entry.Status),
		StatusCode:    entry.Status,
		Header:        entry.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}
}
