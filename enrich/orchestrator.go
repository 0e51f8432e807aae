package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/engine"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/llm"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/metrics"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

// Crawler is the page-fetch dependency of the orchestrator; *engine.Crawler
// implements it.
type Crawler interface {
	Crawl(ctx context.Context, url string) *engine.CrawlResult
}

// Verifier is the model-stage dependency; *llm.Verifier implements it.
type Verifier interface {
	Verify(ctx context.Context, productName, pageText string) (*llm.Fields, *models.LookupError)
}

// Orchestrator runs enrichment batches: strict input order, group pacing,
// and per-record failure isolation. One failed record degrades to its seed
// shape; it never aborts the batch or shifts positions.
type Orchestrator struct {
	crawler   Crawler
	verifier  Verifier
	merger    *Merger
	groupSize int
	delay     time.Duration
	sleep     func(context.Context, time.Duration)
	log       *slog.Logger
}

// NewOrchestrator wires the pipeline stages. groupSize is clamped to at
// least 1; delay is the pause between groups.
func NewOrchestrator(crawler Crawler, verifier Verifier, merger *Merger, groupSize int, delay time.Duration) *Orchestrator {
	if groupSize < 1 {
		groupSize = 1
	}
	return &Orchestrator{
		crawler:   crawler,
		verifier:  verifier,
		merger:    merger,
		groupSize: groupSize,
		delay:     delay,
		sleep:     sleepCtx,
		log:       slog.With("component", "orchestrator"),
	}
}

// Enrich processes seeds in input order and returns exactly one record per
// seed, same order, plus the number of records that degraded. Records are
// processed sequentially in groups of groupSize with the pacing delay
// between groups (never after the last). When ctx is canceled mid-batch,
// every unprocessed seed still yields a degraded record so the output stays
// aligned with the input.
func (o *Orchestrator) Enrich(ctx context.Context, seeds []*models.ProductRecord) ([]*models.ProductRecord, int) {
	out := make([]*models.ProductRecord, 0, len(seeds))
	degraded := 0
	if len(seeds) == 0 {
		return out, 0
	}

	start := time.Now()
	defer func() {
		metrics.ObserveBatch(time.Since(start).Seconds())
	}()

	o.log.Info("starting enrichment", "products", len(seeds), "group_size", o.groupSize)

	for offset := 0; offset < len(seeds); offset += o.groupSize {
		end := offset + o.groupSize
		if end > len(seeds) {
			end = len(seeds)
		}

		for _, seed := range seeds[offset:end] {
			if ctx.Err() != nil {
				o.log.Warn("enrichment canceled, degrading remaining records",
					"completed", len(out), "total", len(seeds),
				)
				metrics.RecordLookup("degraded")
				out = append(out, models.Degraded(seed))
				degraded++
				continue
			}
			rec, outcome := o.processOne(ctx, seed)
			metrics.RecordLookup(outcome)
			out = append(out, rec)
			if outcome == "degraded" {
				degraded++
			}
		}

		if end < len(seeds) {
			o.sleep(ctx, o.delay)
		}
	}

	o.log.Info("enrichment finished",
		"products", len(seeds), "degraded", degraded, "resolved", countResolved(out),
	)
	return out, degraded
}

// processOne runs the crawl → verify → merge pipeline for one seed. Stage
// failures are absorbed here: a failed crawl degrades the record, a failed
// model stage narrows the merge to page-derived signal.
func (o *Orchestrator) processOne(ctx context.Context, seed *models.ProductRecord) (*models.ProductRecord, string) {
	o.log.Info("processing record", "url", seed.URL)

	crawl := o.crawler.Crawl(ctx, seed.URL)
	if !crawl.Success {
		o.log.Error("crawl failed, degrading record",
			"url", seed.URL, "code", models.ErrCodeCrawlFailed, "error", crawl.Error,
		)
		return models.Degraded(seed), "degraded"
	}

	var fields *llm.Fields
	if crawl.Text != "" {
		var lerr *models.LookupError
		fields, lerr = o.verifier.Verify(ctx, seed.Name, crawl.Text)
		if lerr != nil {
			// Deterministic extraction carries the record from here.
			o.log.Warn("model stage unavailable, merging without it",
				"url", seed.URL, "code", lerr.Code, "error", lerr.Err,
			)
			fields = nil
		}
	}

	rec := o.merger.Merge(&Inputs{
		Seed:     seed,
		FieldMap: crawl.FieldMap,
		Text:     crawl.Text,
		Model:    fields,
	})
	return rec, "enriched"
}

// countResolved reports how many records carry at least one resolved
// catalog field, mirroring what the batch log line tracks.
func countResolved(records []*models.ProductRecord) int {
	n := 0
	for _, r := range records {
		if r.Identifier != models.NotFound || r.PartNumber != models.NotFound {
			n++
		}
	}
	return n
}

// sleepCtx pauses for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
