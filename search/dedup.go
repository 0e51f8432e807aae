package search

import (
	"log/slog"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/simhash"
)

// DedupThreshold is the Hamming distance at or under which two listing
// fingerprints count as the same product. Google duplicates are usually the
// same page indexed twice, so the bar is strict.
const DedupThreshold = 3

// Deduper drops near-duplicate listings from a discovery result, keeping
// the first occurrence. Listings are compared by a SimHash fingerprint of
// title + snippet; URLs are ignored since mirrors and tracking parameters
// make them useless for duplicate detection.
type Deduper struct {
	threshold int
	log       *slog.Logger
}

// NewDeduper creates a Deduper with the given Hamming-distance threshold.
// A threshold below zero falls back to DedupThreshold.
func NewDeduper(threshold int) *Deduper {
	if threshold < 0 {
		threshold = DedupThreshold
	}
	return &Deduper{
		threshold: threshold,
		log:       slog.With("component", "search"),
	}
}

// Filter returns seeds with near-duplicates removed, original order
// preserved. Seeds without any title/snippet text are always kept: there
// is nothing to compare them by.
func (d *Deduper) Filter(seeds []*models.ProductRecord) []*models.ProductRecord {
	kept := make([]*models.ProductRecord, 0, len(seeds))
	type fingerprinted struct {
		fp  uint64
		url string
	}
	seen := make([]fingerprinted, 0, len(seeds))

	for _, s := range seeds {
		fp := simhash.FingerprintListing(s.Name, s.Description)
		if fp == 0 {
			kept = append(kept, s)
			continue
		}

		dup := false
		for _, f := range seen {
			if simhash.Similar(fp, f.fp, d.threshold) {
				d.log.Debug("dropping near-duplicate listing",
					"url", s.URL, "duplicate_of", f.url,
					"distance", simhash.Distance(fp, f.fp),
				)
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		kept = append(kept, s)
		seen = append(seen, fingerprinted{fp: fp, url: s.URL})
	}
	return kept
}
