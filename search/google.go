// Package search discovers candidate product pages through the Google
// Programmable Search Engine. Hits become seed records (url, name, snippet)
// for the enrichment pipeline; an optional cache and a near-duplicate
// filter sit in front of the API.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/cache"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/metrics"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

const (
	defaultBaseURL = "https://customsearch.googleapis.com/customsearch/v1"

	// The API rejects num > 10.
	maxResultsCap = 10

	maxAttempts = 3
)

// Options configures a Client.
type Options struct {
	// APIKey and EngineID are the Programmable Search credentials. Both
	// are required.
	APIKey   string
	EngineID string

	// MaxResults is the default result count when a query does not specify
	// one. Clamped to the API cap of 10.
	MaxResults int

	// Dedup enables the near-duplicate listing filter.
	Dedup bool

	// Cache, when non-nil, stores seed lists per normalized query.
	Cache *cache.Cache

	// BaseURL overrides the API endpoint. Tests only.
	BaseURL string
}

// Result is one discovery outcome.
type Result struct {
	// Seeds holds the seed records in API hit order (after dedup).
	Seeds []*models.ProductRecord

	// CacheStatus is "hit" or "miss", empty when caching is disabled.
	CacheStatus string
}

// Client calls the Programmable Search API. Construction validates the
// credentials; a Client is safe for concurrent use.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	engineID   string
	maxResults int
	limiter    *rate.Limiter
	deduper    *Deduper
	cache      *cache.Cache
	log        *slog.Logger
}

// NewClient builds a search client from opts.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" || opts.EngineID == "" {
		return nil, errors.New("search: api key and engine id are required")
	}

	maxResults := opts.MaxResults
	if maxResults < 1 || maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	var deduper *Deduper
	if opts.Dedup {
		deduper = NewDeduper(DedupThreshold)
	}

	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL, apiKey: opts.APIKey, engineID: opts.EngineID,
		maxResults: maxResults,
		// Query quota is billed per request; 1 rps with a small burst keeps
		// a busy batch from burning through it.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		deduper: deduper,
		cache:   opts.Cache,
		log:     slog.With("component", "search"),
	}, nil
}

// searchItem is one hit in the API response.
type searchItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

// Search runs one discovery query and returns seed records for up to max
// hits. max falls back to the configured default when zero or negative and
// is clamped to the API cap.
func (c *Client) Search(ctx context.Context, query string, max int) (*Result, *models.LookupError) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewLookupError(models.ErrCodeInvalidInput, "search query is empty", nil)
	}

	n := max
	if n < 1 {
		n = c.maxResults
	}
	if n > maxResultsCap {
		n = maxResultsCap
	}

	res := &Result{}
	var key string
	if c.cache != nil {
		key = cache.Key(query, n)
		if seeds, ok := c.cache.Get(key); ok {
			metrics.RecordSearch("hit")
			c.log.Debug("discovery cache hit", "query", query, "seeds", len(seeds))
			res.Seeds = seeds
			res.CacheStatus = "hit"
			return res, nil
		}
		metrics.RecordSearch("miss")
		res.CacheStatus = "miss"
	} else {
		metrics.RecordSearch("disabled")
	}

	items, lerr := c.fetch(ctx, query, n)
	if lerr != nil {
		return nil, lerr
	}

	seeds := make([]*models.ProductRecord, 0, len(items))
	for _, it := range items {
		if it.Link == "" {
			continue
		}
		seeds = append(seeds, &models.ProductRecord{
			URL:         it.Link,
			Name:        it.Title,
			Description: it.Snippet,
			Attributes:  []models.Attribute{},
		})
	}

	if c.deduper != nil {
		before := len(seeds)
		seeds = c.deduper.Filter(seeds)
		if dropped := before - len(seeds); dropped > 0 {
			c.log.Info("dropped near-duplicate listings", "query", query, "dropped", dropped)
		}
	}

	c.log.Info("discovery complete", "query", query, "seeds", len(seeds))

	if c.cache != nil {
		c.cache.Set(key, seeds)
	}
	res.Seeds = seeds
	return res, nil
}

// fetch performs the API call with bounded retries. Transport errors, 429
// and 5xx responses back off and retry; any other non-200 fails at once.
func (c *Client) fetch(ctx context.Context, query string, n int) ([]searchItem, *models.LookupError) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(n))
	reqURL := c.baseURL + "?" + params.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, models.NewLookupError(models.ErrCodeSearchFailed, "search canceled while rate limited", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, models.NewLookupError(models.ErrCodeSearchFailed, "building search request", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn("search request failed", "attempt", attempt, "error", err)
			if !c.backoff(ctx, attempt) {
				break
			}
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			if !c.backoff(ctx, attempt) {
				break
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("search API status %d", resp.StatusCode)
			c.log.Warn("search API transient error", "attempt", attempt, "status", resp.StatusCode)
			if !c.backoff(ctx, attempt) {
				break
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			msg := strings.TrimSpace(string(body[:min(len(body), 512)]))
			return nil, models.NewLookupError(models.ErrCodeSearchFailed,
				fmt.Sprintf("search API status %d", resp.StatusCode), errors.New(msg))
		}

		var parsed searchResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, models.NewLookupError(models.ErrCodeSearchFailed, "decoding search response", err)
		}
		return parsed.Items, nil
	}

	return nil, models.NewLookupError(models.ErrCodeSearchFailed, "search API unreachable", lastErr)
}

// backoff sleeps attempt*500ms and reports whether another attempt should
// run. False on cancellation or after the final attempt.
func (c *Client) backoff(ctx context.Context, attempt int) bool {
	if attempt >= maxAttempts {
		return false
	}
	timer := time.NewTimer(time.Duration(attempt*500) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
