package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/api"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/cache"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/config"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/engine"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/enrich"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/extract"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/llm"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/metrics"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/search"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("product lookup starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"provider", cfg.Model.Provider,
		"search", cfg.SearchEnabled(),
	)

	// ── 3. Load extraction tables ───────────────────────────────────
	extraction, lerr := config.LoadExtraction(cfg.Extraction.ConfigPath)
	if lerr != nil {
		slog.Error("failed to load extraction config", "error", lerr)
		os.Exit(1)
	}
	bank, err := extract.NewBank(extraction.Patterns)
	if err != nil {
		slog.Error("failed to compile pattern bank", "error", err)
		os.Exit(1)
	}
	validator := extract.NewValidator(extraction.Limits)
	overrides := extract.NewOverrides(extraction.Sites)

	// ── 4. Initialise crawl engine (launches browser when enabled) ──
	crawler, err := engine.NewCrawler(engine.CrawlerOptions{
		Timeout:        cfg.Crawl.Timeout,
		BrowserEnabled: cfg.Crawl.BrowserEnabled,
		Browser: engine.BrowserOptions{
			Headless:  cfg.Crawl.Headless,
			NoSandbox: cfg.Crawl.NoSandbox,
			Bin:       cfg.Crawl.BrowserBin,
			Proxy:     cfg.Crawl.Proxy,
		},
		Schema: extraction.Schema,
	})
	if err != nil {
		slog.Error("failed to initialise crawl engine", "error", err)
		os.Exit(1)
	}
	defer crawler.Close()

	// ── 5. Initialise model verifier ────────────────────────────────
	var provider llm.Provider
	switch cfg.Model.Provider {
	case "openai":
		provider = llm.NewOpenAI(cfg.Model.OpenAIKey, cfg.Model.OpenAIBaseURL, cfg.Model.OpenAIModel)
	default:
		provider = llm.NewOllama(cfg.Model.OllamaHost, cfg.Model.OllamaModel)
	}
	verifier := llm.NewVerifier(provider, cfg.Model.Timeout)

	// ── 6. Wire the enrichment pipeline ─────────────────────────────
	policy, err := enrich.ParsePolicy(cfg.Pipeline.MergePolicy)
	if err != nil {
		slog.Error("invalid merge policy", "error", err)
		os.Exit(1)
	}
	merger := enrich.NewMerger(validator, bank, overrides, policy)
	orchestrator := enrich.NewOrchestrator(crawler, verifier, merger,
		cfg.Pipeline.BatchSize, cfg.Pipeline.BatchDelay)

	// ── 7. Initialise discovery (optional) ──────────────────────────
	var searcher *search.Client
	if cfg.SearchEnabled() {
		searcher, err = search.NewClient(search.Options{
			APIKey:     cfg.Search.APIKey,
			EngineID:   cfg.Search.EngineID,
			MaxResults: cfg.Search.MaxResults,
			Dedup:      cfg.Search.Dedup,
			Cache:      cache.New(cfg.Search.CacheTTL, cfg.Search.CacheEntries),
		})
		if err != nil {
			slog.Error("failed to initialise search client", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("discovery credentials missing, /search endpoint disabled")
	}

	// ── 8. Register metrics and set up router ───────────────────────
	metrics.Register()
	startTime := time.Now()
	router := api.NewRouter(crawler, orchestrator, searcher, cfg, startTime)

	// ── 9. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 10. Graceful shutdown ───────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// crawler.Close() runs via defer — shuts down the shared browser.
	slog.Info("product lookup stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
