package models

// SearchResponse is the response for POST /api/v1/search.
type SearchResponse struct {
	// Success indicates whether discovery and enrichment completed.
	Success bool `json:"success"`

	// Query echoes the search query.
	Query string `json:"query"`

	// Products holds one enriched record per discovery hit, in hit order.
	Products []*ProductRecord `json:"products"`

	// Total is len(Products).
	Total int `json:"total"`

	// CacheStatus indicates whether discovery hits came from cache.
	// Values: "hit", "miss", or empty (caching disabled).
	CacheStatus string `json:"cache_status,omitempty"`

	// Timing provides duration breakdowns for the operation. Omitted on
	// rejected or failed requests.
	Timing *TimingInfo `json:"timing,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// SearchMs is the time spent in the discovery call.
	SearchMs int64 `json:"search_ms,omitempty"`

	// EnrichMs is the time spent crawling, extracting and merging.
	EnrichMs int64 `json:"enrich_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string      `json:"status"` // "healthy" or "degraded"
	Uptime  string      `json:"uptime"`
	Version string      `json:"version"`
	Engine  EngineStats `json:"engine"`
}

// EngineStats reports the state of the shared crawl session.
type EngineStats struct {
	// Browser reports whether the headless browser engine is running.
	Browser bool `json:"browser"`

	// Provider is the configured model provider ("ollama" or "openai").
	Provider string `json:"provider"`

	// InFlight is the number of crawls currently executing.
	InFlight int `json:"in_flight"`
}
