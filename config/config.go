package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Merge policy names. PolicyPageFirst resolves each field from page-derived
// signal before consulting the model; PolicyModelFirst inverts that order.
const (
	PolicyPageFirst  = "page_first"
	PolicyModelFirst = "model_first"
)

// Config holds all application configuration. It is loaded once at startup
// and passed down read-only; no component re-reads the environment mid-run.
type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
	Extraction ExtractionSettings
	Crawl      CrawlConfig
	Model      ModelConfig
	Search     SearchConfig
	Pipeline   PipelineConfig
	Webhook    WebhookConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// APIKeys is the list of valid API keys. Empty list disables auth
	// (development mode).
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// ExtractionSettings locates the extraction config file (selector schema,
// pattern banks, site hints, validation limits).
type ExtractionSettings struct {
	// ConfigPath is the path to the extraction config JSON file. An empty
	// value means "run on built-in defaults"; a non-empty path that cannot
	// be loaded is fatal at startup.
	ConfigPath string // default: "config/extraction.json"
}

// CrawlConfig controls the crawl engine.
type CrawlConfig struct {
	// Timeout is the hard deadline for one page crawl.
	Timeout time.Duration // default: 45s

	// BrowserEnabled toggles the headless-browser fallback engine.
	BrowserEnabled bool // default: true

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL for browser traffic.
	Proxy string
}

// ModelConfig controls the LLM verification stage.
type ModelConfig struct {
	// Provider selects the model backend: "ollama" or "openai".
	Provider string // default: "ollama"

	// Timeout is the hard deadline for one model call. A timed-out call
	// degrades to deterministic-only extraction, it never stalls a batch.
	Timeout time.Duration // default: 60s

	// OllamaHost is the native provider endpoint.
	OllamaHost string // default: "http://localhost:11434"

	// OllamaModel is the native provider model name.
	OllamaModel string // default: "mistral:latest"

	// OpenAIKey, OpenAIBaseURL, OpenAIModel configure the OpenAI-compatible
	// provider for hosted deployments.
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string // default: "gpt-4o-mini"
}

// SearchConfig controls the discovery step (Google Programmable Search).
type SearchConfig struct {
	// APIKey and EngineID are the Google PSE credentials. Discovery-backed
	// endpoints refuse to start without them.
	APIKey   string
	EngineID string

	// MaxResults caps discovery hits per query (Google caps num at 10).
	MaxResults int // default: 8

	// CacheTTL bounds how long a discovery result list is reused.
	CacheTTL time.Duration // default: 15m

	// CacheEntries bounds the discovery cache size.
	CacheEntries int // default: 500

	// Dedup toggles the simhash near-duplicate filter on discovery hits.
	Dedup bool // default: true
}

// PipelineConfig controls the enrichment batch orchestrator.
type PipelineConfig struct {
	// BatchSize is the number of items processed between pacing delays.
	BatchSize int // default: 2

	// BatchDelay is the pause between batches (never after the last one),
	// bounding the request rate against target sites.
	BatchDelay time.Duration // default: 3s

	// MergePolicy selects the field-merge precedence variant.
	MergePolicy string // default: "page_first"

	// JobTTL is how long completed lookup jobs are retained for polling.
	JobTTL time.Duration // default: 1h
}

// WebhookConfig controls completion notifications.
type WebhookConfig struct {
	// URL receives lookup.completed / lookup.failed events. Empty disables.
	URL string

	// Secret signs event payloads with HMAC-SHA256 when non-empty.
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: envOr("LOOKUP_HOST", "0.0.0.0"),
			Port: envIntOr("LOOKUP_PORT", 8080),
			Mode: envOr("LOOKUP_MODE", "release"),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("LOOKUP_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("LOOKUP_RATE_RPS", 5.0),
			Burst:             envIntOr("LOOKUP_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("LOOKUP_LOG_LEVEL", "info"),
			Format: envOr("LOOKUP_LOG_FORMAT", "json"),
		},
		Extraction: ExtractionSettings{
			ConfigPath: extractionPath(),
		},
		Crawl: CrawlConfig{
			Timeout:        envDurationOr("LOOKUP_CRAWL_TIMEOUT", 45*time.Second),
			BrowserEnabled: envBoolOr("LOOKUP_BROWSER_ENABLED", true),
			Headless:       envBoolOr("LOOKUP_HEADLESS", true),
			NoSandbox:      envBoolOr("LOOKUP_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("LOOKUP_BROWSER_BIN"),
			Proxy:          os.Getenv("LOOKUP_PROXY"),
		},
		Model: ModelConfig{
			Provider:      envOr("LOOKUP_MODEL_PROVIDER", "ollama"),
			Timeout:       envDurationOr("LOOKUP_MODEL_TIMEOUT", 60*time.Second),
			OllamaHost:    envOr("LOOKUP_OLLAMA_HOST", "http://localhost:11434"),
			OllamaModel:   envOr("LOOKUP_OLLAMA_MODEL", "mistral:latest"),
			OpenAIKey:     os.Getenv("LOOKUP_OPENAI_API_KEY"),
			OpenAIBaseURL: os.Getenv("LOOKUP_OPENAI_BASE_URL"),
			OpenAIModel:   envOr("LOOKUP_OPENAI_MODEL", "gpt-4o-mini"),
		},
		Search: SearchConfig{
			APIKey:       os.Getenv("LOOKUP_GOOGLE_API_KEY"),
			EngineID:     os.Getenv("LOOKUP_GOOGLE_CX"),
			MaxResults:   envIntOr("LOOKUP_MAX_SEARCH_RESULTS", 8),
			CacheTTL:     envDurationOr("LOOKUP_SEARCH_CACHE_TTL", 15*time.Minute),
			CacheEntries: envIntOr("LOOKUP_SEARCH_CACHE_ENTRIES", 500),
			Dedup:        envBoolOr("LOOKUP_SEARCH_DEDUP", true),
		},
		Pipeline: PipelineConfig{
			BatchSize:   envIntOr("LOOKUP_BATCH_SIZE", 2),
			BatchDelay:  envDurationOr("LOOKUP_BATCH_DELAY", 3*time.Second),
			MergePolicy: envOr("LOOKUP_MERGE_POLICY", PolicyPageFirst),
			JobTTL:      envDurationOr("LOOKUP_JOB_TTL", time.Hour),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("LOOKUP_WEBHOOK_URL"),
			Secret: os.Getenv("LOOKUP_WEBHOOK_SECRET"),
		},
	}
}

// Validate rejects configurations the pipeline must not start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	switch c.Pipeline.MergePolicy {
	case PolicyPageFirst, PolicyModelFirst:
	default:
		return fmt.Errorf("config: unknown merge policy %q", c.Pipeline.MergePolicy)
	}
	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("config: batch size must be >= 1, got %d", c.Pipeline.BatchSize)
	}
	switch c.Model.Provider {
	case "ollama":
	case "openai":
		if c.Model.OpenAIKey == "" {
			return fmt.Errorf("config: LOOKUP_OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("config: unknown model provider %q", c.Model.Provider)
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("config: max search results must be >= 1, got %d", c.Search.MaxResults)
	}
	return nil
}

// SearchEnabled reports whether discovery credentials are configured.
// Without them the /search endpoint is disabled; /lookup still works.
func (c *Config) SearchEnabled() bool {
	return c.Search.APIKey != "" && c.Search.EngineID != ""
}

// extractionPath resolves LOOKUP_EXTRACTION_CONFIG. Unlike the other string
// variables, an explicitly empty value is meaningful: it selects the built-in
// extraction defaults instead of requiring a config file.
func extractionPath() string {
	if v, ok := os.LookupEnv("LOOKUP_EXTRACTION_CONFIG"); ok {
		return v
	}
	return "config/extraction.json"
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
