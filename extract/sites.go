package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

// Overrides holds per-domain extraction hints, applied only when the
// generic strategies leave a field unresolved. Hints come in two forms:
//
//	"[data-sku]"      — a data attribute, scanned as data-sku="value"
//	".product-price"  — a class-name fragment, scanned as
//	                    class="...product-price..." ... >text<
//
// The hint tables are data loaded at startup; domain keys are matched as
// case-insensitive substrings of the record URL.
type Overrides struct {
	sites map[string]map[string][]string
	order []string
}

// DefaultSites returns the built-in hint tables for the laboratory-supply
// domains this system was tuned on. The extraction config file may add or
// replace entries per domain.
func DefaultSites() map[string]map[string][]string {
	return map[string]map[string][]string{
		"fishersci.com": {
			FieldIdentifier: {"[data-partnumber]", ".catalog-number"},
			FieldPartNumber: {"[data-partnumber]"},
			FieldPrice:      {".qa_single_price", ".price"},
		},
		"sigmaaldrich.com": {
			FieldIdentifier: {"[data-sku]", ".product-number"},
			FieldPrice:      {".price"},
		},
		"thermofisher.com": {
			FieldIdentifier: {"[data-catalog-number]", ".catalog-number"},
			FieldPrice:      {".price"},
		},
		"vwr.com": {
			FieldIdentifier: {"[data-cat-no]", ".catalog-no"},
			FieldPrice:      {".price-value"},
		},
		"usascientific.com": {
			FieldIdentifier: {"[data-item]", ".item-number"},
		},
		"eppendorf.com": {
			FieldIdentifier: {"[data-material-number]", ".order-number"},
			FieldPrice:      {".price"},
		},
		"gilson.com": {
			FieldIdentifier: {"[data-product-code]", ".product-code"},
			FieldPartNumber: {".part-number"},
		},
		"celltreat.com": {
			FieldIdentifier: {"[data-product-sku]", ".product-sku"},
			FieldPrice:      {".price"},
		},
		"globescientific.com": {
			FieldIdentifier: {"[data-sku]", ".sku"},
		},
		"shoprainin.com": {
			FieldIdentifier: {"[data-product-id]", ".product-id"},
			FieldPrice:      {".product-price"},
		},
	}
}

// NewOverrides builds a resolver over the given hint tables. Domains are
// probed in sorted order so URL matching stays deterministic even if a URL
// contains more than one configured domain.
func NewOverrides(sites map[string]map[string][]string) *Overrides {
	order := make([]string, 0, len(sites))
	for domain := range sites {
		order = append(order, domain)
	}
	sort.Strings(order)
	return &Overrides{sites: sites, order: order}
}

// Hints returns the hint table of the first configured domain contained in
// url. ok is false when no domain matches.
func (o *Overrides) Hints(url string) (map[string][]string, bool) {
	lower := strings.ToLower(url)
	for _, domain := range o.order {
		if strings.Contains(lower, strings.ToLower(domain)) {
			return o.sites[domain], true
		}
	}
	return nil, false
}

// Apply scans text with each hint in order and returns the first match.
// A present non-sentinel current value is never overwritten; with no hint
// hit, current is returned unchanged (still absent or sentinel).
func (o *Overrides) Apply(current string, hints []string, text string) string {
	if current != "" && current != models.NotFound {
		return current
	}

	for _, hint := range hints {
		if m, ok := scanHint(hint, text); ok {
			return m
		}
	}
	return current
}

// scanHint matches one hint against raw page text.
func scanHint(hint, text string) (string, bool) {
	if strings.Contains(hint, "data-") {
		name := strings.TrimPrefix(strings.Trim(hint, "[]"), "data-")
		if name == "" {
			return "", false
		}
		re, err := regexp.Compile(`data-` + regexp.QuoteMeta(name) + `="([^"]+)"`)
		if err != nil {
			return "", false
		}
		if m := re.FindStringSubmatch(text); m != nil {
			v := strings.TrimSpace(m[1])
			return v, v != ""
		}
		return "", false
	}

	fragment := strings.ReplaceAll(hint, ".", "")
	if fragment == "" {
		return "", false
	}
	re, err := regexp.Compile(`class="[^"]*` + regexp.QuoteMeta(fragment) + `[^"]*"[^>]*>([^<]+)`)
	if err != nil {
		return "", false
	}
	if m := re.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		return v, v != ""
	}
	return "", false
}
