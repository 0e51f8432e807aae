package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/metrics"
)

// CrawlResult is the outcome of one page crawl. Failure is carried in the
// result, not as an error: a failed crawl degrades the record, it never
// aborts the batch.
type CrawlResult struct {
	// Success reports whether a page was fetched and processed.
	Success bool

	// FieldMap holds the structured selector-pass output, list-valued per
	// logical field. Nil or empty when no selector matched.
	FieldMap map[string]any

	// Text is the Markdown rendering of the page's main content, consumed
	// by the pattern and model stages.
	Text string

	// Title is the page title (fetch metadata, readability refined).
	Title string

	// Engine names the engine that served the fetch.
	Engine string

	// ErrorMessage describes the failure when Success is false.
	Error string
}

// CrawlerOptions configures the crawl session.
type CrawlerOptions struct {
	// Timeout bounds a single Crawl call end to end.
	Timeout time.Duration

	// BrowserEnabled turns on the headless-browser fallback.
	BrowserEnabled bool

	// Browser configures the fallback engine when enabled.
	Browser BrowserOptions

	// Schema is the selector schema for the structured pass.
	Schema map[string][]string
}

// Crawler is the shared crawl session: a fast HTTP engine, an optional
// browser fallback, and the structured selector pass. One Crawler is
// created at startup and shared by all batches; Crawl is safe for
// concurrent use.
type Crawler struct {
	http     Engine
	browser  Engine
	closeFn  func()
	selector *SelectorPass
	timeout  time.Duration
	inFlight atomic.Int32
	log      *slog.Logger
}

// NewCrawler builds the session. The browser (when enabled) is launched
// here once; a launch failure fails construction rather than surfacing
// mid-batch.
func NewCrawler(opts CrawlerOptions) (*Crawler, error) {
	pass, err := NewSelectorPass(opts.Schema)
	if err != nil {
		return nil, err
	}

	c := &Crawler{
		http:     NewHTTPEngine(),
		selector: pass,
		timeout:  opts.Timeout,
		log:      slog.With("component", "crawler"),
	}

	if opts.BrowserEnabled {
		browser, err := NewBrowserEngine(opts.Browser)
		if err != nil {
			return nil, err
		}
		c.browser = browser
		c.closeFn = browser.Close
	}
	return c, nil
}

// newCrawlerWith wires explicit engines, used by tests.
func newCrawlerWith(httpEng, browserEng Engine, pass *SelectorPass, timeout time.Duration) *Crawler {
	return &Crawler{
		http:     httpEng,
		browser:  browserEng,
		selector: pass,
		timeout:  timeout,
		log:      slog.With("component", "crawler"),
	}
}

// Crawl fetches pageURL fresh (no caching), runs the selector pass and
// renders the model-stage text. The HTTP engine goes first; on its failure
// the browser engine (when configured) retries the same request within the
// remaining deadline.
func (c *Crawler) Crawl(ctx context.Context, pageURL string) *CrawlResult {
	c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &FetchRequest{URL: pageURL, Timeout: c.timeout}

	res, err := c.http.Fetch(ctx, req)
	if err != nil {
		metrics.RecordCrawl(c.http.Name(), "error")
		if c.browser == nil || ctx.Err() != nil {
			return &CrawlResult{Error: err.Error()}
		}
		c.log.Debug("http fetch failed, escalating to browser",
			"url", pageURL, "error", err,
		)
		res, err = c.browser.Fetch(ctx, req)
		if err != nil {
			metrics.RecordCrawl(c.browser.Name(), "error")
			return &CrawlResult{Error: err.Error()}
		}
	}
	metrics.RecordCrawl(res.EngineName, "ok")

	return &CrawlResult{
		Success:  true,
		FieldMap: c.selector.Extract(res.HTML),
		Text:     RenderText(res.HTML, pageURL, res.Title),
		Title:    res.Title,
		Engine:   res.EngineName,
	}
}

// InFlight reports how many crawls are executing right now.
func (c *Crawler) InFlight() int {
	return int(c.inFlight.Load())
}

// BrowserActive reports whether the browser fallback is running.
func (c *Crawler) BrowserActive() bool {
	return c.browser != nil
}

// Close releases the browser session. Safe to call once at shutdown.
func (c *Crawler) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}
