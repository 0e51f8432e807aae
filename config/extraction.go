package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/extract"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

// ExtractionConfig carries the merged extraction tables handed to the
// pipeline at startup: the selector schema driving the structured pass, the
// pattern bank sources, the per-site hint tables, and the validation length
// bounds. All four start from built-in defaults; a config file adds to or
// overrides them.
type ExtractionConfig struct {
	// Schema maps a logical field name to an ordered CSS selector list.
	Schema map[string][]string

	// Patterns maps a category to regex sources for the pattern bank.
	Patterns map[string][]string

	// Sites maps a domain to its field hint table.
	Sites map[string]map[string][]string

	// Limits holds the validation length bounds.
	Limits extract.Limits
}

// extractionFile is the on-disk JSON shape.
type extractionFile struct {
	Fields   map[string]fieldEntry          `json:"fields"`
	Patterns map[string][]string            `json:"patterns"`
	Sites    map[string]map[string][]string `json:"sites"`
	Limits   *limitsEntry                   `json:"limits"`
}

type fieldEntry struct {
	Enabled   bool     `json:"enabled"`
	Selectors []string `json:"selectors"`
}

type limitsEntry struct {
	IdentifierMin  *int `json:"identifier_min"`
	IdentifierMax  *int `json:"identifier_max"`
	PartNumberMin  *int `json:"part_number_min"`
	PartNumberMax  *int `json:"part_number_max"`
	BrandMin       *int `json:"brand_min"`
	BrandMax       *int `json:"brand_max"`
	DescriptionMax *int `json:"description_max"`
}

// DefaultSchema returns the built-in selector schema for product pages.
// Selectors within a field are probed in order; list position matters.
func DefaultSchema() map[string][]string {
	return map[string][]string{
		extract.FieldName: {
			"h1", ".product-title", ".product-name", "[itemprop=name]",
		},
		extract.FieldIdentifier: {
			".sku", ".catalog-number", "[itemprop=sku]", ".product-code", ".item-number",
		},
		extract.FieldPartNumber: {
			".part-number", ".mpn", "[itemprop=mpn]", ".order-number",
		},
		extract.FieldBrand: {
			".brand", "[itemprop=brand]", ".manufacturer",
		},
		extract.FieldPrice: {
			".price", "[itemprop=price]", ".product-price", ".price-value",
		},
		extract.FieldDescription: {
			".product-description", "[itemprop=description]", ".description", ".product-summary",
		},
	}
}

// LoadExtraction builds the extraction tables. With an empty path the
// built-in defaults are returned as-is; otherwise the file at path is
// required and any load, parse, or selector error is fatal configuration.
func LoadExtraction(path string) (*ExtractionConfig, *models.LookupError) {
	cfg := &ExtractionConfig{
		Schema:   DefaultSchema(),
		Patterns: extract.DefaultPatterns(),
		Sites:    extract.DefaultSites(),
		Limits:   extract.DefaultLimits(),
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewLookupError(models.ErrCodeConfig,
			fmt.Sprintf("extraction config not readable at %s", path), err)
	}

	var file extractionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, models.NewLookupError(models.ErrCodeConfig,
			fmt.Sprintf("extraction config at %s is not valid JSON", path), err)
	}

	// Field entries replace the default selector list for that field; a
	// disabled entry removes the field from the structured pass entirely.
	for field, entry := range file.Fields {
		if !entry.Enabled {
			delete(cfg.Schema, field)
			continue
		}
		if len(entry.Selectors) == 0 {
			return nil, models.NewLookupError(models.ErrCodeConfig,
				fmt.Sprintf("extraction config: field %q is enabled but has no selectors", field), nil)
		}
		cfg.Schema[field] = entry.Selectors
	}

	for field, selectors := range cfg.Schema {
		for _, sel := range selectors {
			if _, err := cascadia.Parse(sel); err != nil {
				return nil, models.NewLookupError(models.ErrCodeConfig,
					fmt.Sprintf("extraction config: field %q selector %q does not parse", field, sel), err)
			}
		}
	}

	// Extra patterns append after the defaults so the built-in ordering
	// keeps precedence.
	for category, patterns := range file.Patterns {
		cfg.Patterns[category] = append(cfg.Patterns[category], patterns...)
	}

	// Site entries replace the whole hint table for that domain.
	for domain, hints := range file.Sites {
		cfg.Sites[domain] = hints
	}

	if file.Limits != nil {
		applyLimit(&cfg.Limits.IdentifierMin, file.Limits.IdentifierMin)
		applyLimit(&cfg.Limits.IdentifierMax, file.Limits.IdentifierMax)
		applyLimit(&cfg.Limits.PartNumberMin, file.Limits.PartNumberMin)
		applyLimit(&cfg.Limits.PartNumberMax, file.Limits.PartNumberMax)
		applyLimit(&cfg.Limits.BrandMin, file.Limits.BrandMin)
		applyLimit(&cfg.Limits.BrandMax, file.Limits.BrandMax)
		applyLimit(&cfg.Limits.DescriptionMax, file.Limits.DescriptionMax)
	}

	return cfg, nil
}

func applyLimit(dst *int, src *int) {
	if src != nil && *src > 0 {
		*dst = *src
	}
}
