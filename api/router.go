package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/api/handler"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/api/middleware"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/config"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/engine"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/enrich"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/metrics"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/search"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics endpoints are intentionally outside auth so monitoring
// probes always work. searcher may be nil when discovery credentials are not
// configured; the search route then answers 503.
func NewRouter(crawler *engine.Crawler, orchestrator *enrich.Orchestrator, searcher *search.Client, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	// Prometheus scrape endpoint — outside the versioned API.
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(crawler, cfg.Model.Provider, cfg.Crawl.BrowserEnabled, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if len(cfg.Auth.APIKeys) > 0 {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Search: discover listings and enrich them synchronously.
	if searcher != nil {
		protected.POST("/search", handler.Search(searcher, orchestrator, cfg.Search.MaxResults))
	} else {
		protected.POST("/search", handler.SearchDisabled())
	}

	// Lookup: asynchronous batch enrichment of caller-supplied seeds.
	jobs := handler.NewJobStore(cfg.Pipeline.JobTTL)
	protected.POST("/lookup", handler.PostLookup(jobs, orchestrator, cfg.Webhook.URL, cfg.Webhook.Secret))
	protected.GET("/lookup/:id", handler.GetLookup(jobs))

	return r
}
