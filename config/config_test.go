package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Pipeline.BatchSize != 2 {
		t.Errorf("default batch size = %d, want 2", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.BatchDelay != 3*time.Second {
		t.Errorf("default batch delay = %v, want 3s", cfg.Pipeline.BatchDelay)
	}
	if cfg.Pipeline.MergePolicy != PolicyPageFirst {
		t.Errorf("default merge policy = %q, want %q", cfg.Pipeline.MergePolicy, PolicyPageFirst)
	}
	if cfg.Crawl.Timeout != 45*time.Second {
		t.Errorf("default crawl timeout = %v, want 45s", cfg.Crawl.Timeout)
	}
	if cfg.Model.Timeout != 60*time.Second {
		t.Errorf("default model timeout = %v, want 60s", cfg.Model.Timeout)
	}
	if cfg.Model.Provider != "ollama" {
		t.Errorf("default provider = %q, want ollama", cfg.Model.Provider)
	}
	if cfg.Search.MaxResults != 8 {
		t.Errorf("default max results = %d, want 8", cfg.Search.MaxResults)
	}
	if cfg.Extraction.ConfigPath != "config/extraction.json" {
		t.Errorf("default extraction path = %q", cfg.Extraction.ConfigPath)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOOKUP_PORT", "9090")
	t.Setenv("LOOKUP_BATCH_SIZE", "4")
	t.Setenv("LOOKUP_BATCH_DELAY", "500ms")
	t.Setenv("LOOKUP_MERGE_POLICY", "model_first")
	t.Setenv("LOOKUP_API_KEYS", "key-a, key-b,")
	t.Setenv("LOOKUP_RATE_RPS", "2.5")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Pipeline.BatchSize != 4 {
		t.Errorf("batch size = %d, want 4", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.BatchDelay != 500*time.Millisecond {
		t.Errorf("batch delay = %v, want 500ms", cfg.Pipeline.BatchDelay)
	}
	if cfg.Pipeline.MergePolicy != PolicyModelFirst {
		t.Errorf("merge policy = %q, want model_first", cfg.Pipeline.MergePolicy)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[0] != "key-a" || cfg.Auth.APIKeys[1] != "key-b" {
		t.Errorf("api keys = %v, want [key-a key-b]", cfg.Auth.APIKeys)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("rate = %v, want 2.5", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestExtractionPathExplicitlyEmpty(t *testing.T) {
	t.Setenv("LOOKUP_EXTRACTION_CONFIG", "")

	cfg := Load()
	if cfg.Extraction.ConfigPath != "" {
		t.Errorf("explicitly empty path should stay empty, got %q", cfg.Extraction.ConfigPath)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Load()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad merge policy", func(c *Config) { c.Pipeline.MergePolicy = "newest_first" }, true},
		{"zero batch size", func(c *Config) { c.Pipeline.BatchSize = 0 }, true},
		{"unknown provider", func(c *Config) { c.Model.Provider = "bard" }, true},
		{"openai without key", func(c *Config) { c.Model.Provider = "openai"; c.Model.OpenAIKey = "" }, true},
		{"openai with key", func(c *Config) { c.Model.Provider = "openai"; c.Model.OpenAIKey = "sk-x" }, false},
		{"zero search results", func(c *Config) { c.Search.MaxResults = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearchEnabled(t *testing.T) {
	cfg := Load()
	if cfg.SearchEnabled() {
		t.Error("search should be disabled without credentials")
	}

	cfg.Search.APIKey = "k"
	cfg.Search.EngineID = "cx"
	if !cfg.SearchEnabled() {
		t.Error("search should be enabled with key and cx")
	}
}
