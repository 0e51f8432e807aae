// Package metrics exposes the Prometheus collectors for the lookup
// pipeline. Collectors are package-level and safe to use before Register
// is called; Register must run exactly once, at startup, before the
// /metrics handler is mounted.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_records_total",
			Help: "Enriched records by outcome (enriched, degraded).",
		},
		[]string{"outcome"},
	)

	crawlsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_crawl_attempts_total",
			Help: "Crawl attempts by engine and outcome.",
		},
		[]string{"engine", "outcome"},
	)

	modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_model_calls_total",
			Help: "Model verification calls by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	validationRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_validation_rejections_total",
			Help: "Candidate values rejected by the field validator, by field.",
		},
		[]string{"field"},
	)

	searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_searches_total",
			Help: "Discovery queries by cache status (hit, miss, disabled).",
		},
		[]string{"cache"},
	)

	batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lookup_batch_duration_seconds",
			Help:    "End-to-end duration of one enrichment batch.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(
		lookupsTotal,
		crawlsTotal,
		modelCallsTotal,
		validationRejectionsTotal,
		searchesTotal,
		batchDuration,
	)
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordLookup counts one finished record. Outcome is "enriched" or
// "degraded".
func RecordLookup(outcome string) {
	lookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordCrawl counts one engine fetch attempt.
func RecordCrawl(engine, outcome string) {
	crawlsTotal.WithLabelValues(engine, outcome).Inc()
}

// RecordModelCall counts one model verification call.
func RecordModelCall(provider, outcome string) {
	modelCallsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordValidationRejection counts one candidate the validator sent back
// to the sentinel.
func RecordValidationRejection(field string) {
	validationRejectionsTotal.WithLabelValues(field).Inc()
}

// RecordSearch counts one discovery query by cache status.
func RecordSearch(cache string) {
	searchesTotal.WithLabelValues(cache).Inc()
}

// ObserveBatch records the wall-clock duration of one batch.
func ObserveBatch(seconds float64) {
	batchDuration.Observe(seconds)
}
