package enrich

import (
	"strings"
	"testing"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/extract"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/llm"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

func testMerger(t *testing.T, policy Policy) *Merger {
	t.Helper()
	bank, err := extract.NewBank(extract.DefaultPatterns())
	if err != nil {
		t.Fatal(err)
	}
	return NewMerger(
		extract.NewValidator(extract.DefaultLimits()),
		bank,
		extract.NewOverrides(extract.DefaultSites()),
		policy,
	)
}

func seed(url, name string) *models.ProductRecord {
	return &models.ProductRecord{URL: url, Name: name, Attributes: []models.Attribute{}}
}

func TestMergeStructuredBeatsModel(t *testing.T) {
	m := testMerger(t, PageFirst)

	out := m.Merge(&Inputs{
		Seed:     seed("https://vendor.test/p1", "Pipette Tips"),
		FieldMap: map[string]any{"identifier": []any{"ABC123"}},
		Text:     "",
		Model:    &llm.Fields{Identifier: "ZZZ999"},
	})

	if out.Identifier != "ABC123" {
		t.Errorf("identifier = %q, want structured value ABC123", out.Identifier)
	}
}

func TestMergePatternFallback(t *testing.T) {
	m := testMerger(t, PageFirst)

	out := m.Merge(&Inputs{
		Seed: seed("https://vendor.test/p1", "Pipette Tips"),
		Text: "Catalog listing for item BMSP7700T available now",
	})

	if out.Identifier != "BMSP7700T" {
		t.Errorf("identifier = %q, want pattern match BMSP7700T", out.Identifier)
	}
}

func TestMergeModelFallback(t *testing.T) {
	m := testMerger(t, PageFirst)

	out := m.Merge(&Inputs{
		Seed:  seed("https://vendor.test/p1", "Pipette Tips"),
		Text:  "a plain page about laboratory supplies",
		Model: &llm.Fields{Identifier: "AB-123", Brand: "Gilson"},
	})

	if out.Identifier != "AB-123" {
		t.Errorf("identifier = %q, want model value AB-123", out.Identifier)
	}
	if out.Brand != "Gilson" {
		t.Errorf("brand = %q, want model value Gilson", out.Brand)
	}
}

func TestMergeSiteHint(t *testing.T) {
	m := testMerger(t, PageFirst)

	out := m.Merge(&Inputs{
		Seed: seed("https://www.fishersci.com/shop/products/pipette/p1", "Pipette"),
		Text: `listing card data-partnumber="X9" in stock`,
	})

	if out.Identifier != "X9" {
		t.Errorf("identifier = %q, want site-hint value X9", out.Identifier)
	}
}

func TestMergeMixedSources(t *testing.T) {
	m := testMerger(t, PageFirst)

	out := m.Merge(&Inputs{
		Seed:     seed("https://vendor.test/p1", "Pipette Tips"),
		FieldMap: map[string]any{"identifier": []any{"ABC123"}},
		Text:     "a plain page about laboratory supplies",
		Model:    &llm.Fields{Identifier: "", Brand: "Gilson"},
	})

	if out.Identifier != "ABC123" {
		t.Errorf("identifier = %q, want ABC123", out.Identifier)
	}
	if out.Brand != "Gilson" {
		t.Errorf("brand = %q, want Gilson", out.Brand)
	}
	if out.Name != "Pipette Tips" {
		t.Errorf("name = %q, want seed name", out.Name)
	}
	for field, v := range map[string]string{
		"part_number": out.PartNumber,
		"price":       out.Price,
		"description": out.Description,
	} {
		if v != models.NotFound {
			t.Errorf("%s = %q, want sentinel", field, v)
		}
	}
}

func TestMergeModelFirstPolicy(t *testing.T) {
	m := testMerger(t, ModelFirst)

	out := m.Merge(&Inputs{
		Seed:     seed("https://vendor.test/p1", "Pipette Tips"),
		FieldMap: map[string]any{"identifier": []any{"ABC123"}},
		Model:    &llm.Fields{Identifier: "ZZ-999"},
	})

	if out.Identifier != "ZZ-999" {
		t.Errorf("identifier = %q, want model value under model_first", out.Identifier)
	}

	// Without a model candidate the page signal still resolves the field.
	out = m.Merge(&Inputs{
		Seed:     seed("https://vendor.test/p1", "Pipette Tips"),
		FieldMap: map[string]any{"identifier": []any{"ABC123"}},
	})
	if out.Identifier != "ABC123" {
		t.Errorf("identifier = %q, want structured value when model is absent", out.Identifier)
	}
}

func TestMergeInvalidCandidateFallsThrough(t *testing.T) {
	m := testMerger(t, PageFirst)

	// The structured candidate fails the identifier shape (spaces), so the
	// model candidate resolves the field instead.
	out := m.Merge(&Inputs{
		Seed:     seed("https://vendor.test/p1", "Pipette Tips"),
		FieldMap: map[string]any{"identifier": []any{"not a valid sku"}},
		Model:    &llm.Fields{Identifier: "AB-123"},
	})

	if out.Identifier != "AB-123" {
		t.Errorf("identifier = %q, want fall-through to model", out.Identifier)
	}
}

func TestMergeSeedIsLastResortAndGated(t *testing.T) {
	m := testMerger(t, PageFirst)

	s := seed("https://vendor.test/p1", "Pipette Tips")
	s.Brand = "Eppendorf"
	s.Price = "$45.00"
	s.Description = "Seed description"

	out := m.Merge(&Inputs{Seed: s})
	if out.Brand != "Eppendorf" {
		t.Errorf("brand = %q, want seed fallback", out.Brand)
	}
	if out.Price != "$45.00" {
		t.Errorf("price = %q, want seed fallback", out.Price)
	}
	if out.Description != "Seed description" {
		t.Errorf("description = %q, want seed fallback", out.Description)
	}

	// Model candidates outrank the seed.
	out = m.Merge(&Inputs{Seed: s, Text: "page text without useful patterns", Model: &llm.Fields{Brand: "Gilson"}})
	if out.Brand != "Gilson" {
		t.Errorf("brand = %q, model should outrank seed", out.Brand)
	}

	// Seed values pass through the validator like any other candidate.
	s2 := seed("https://vendor.test/p2", "Tips")
	s2.Price = "Call for quote"
	out = m.Merge(&Inputs{Seed: s2})
	if out.Price != models.NotFound {
		t.Errorf("price = %q, invalid seed value should be sentineled", out.Price)
	}
}

func TestMergeSentinelClosure(t *testing.T) {
	m := testMerger(t, PageFirst)

	out := m.Merge(&Inputs{Seed: seed("https://vendor.test/p1", "")})

	for field, v := range map[string]string{
		"name":        out.Name,
		"identifier":  out.Identifier,
		"part_number": out.PartNumber,
		"brand":       out.Brand,
		"price":       out.Price,
		"description": out.Description,
	} {
		if v == "" {
			t.Errorf("%s is empty, fields must be value or sentinel", field)
		}
	}
	if out.Attributes == nil {
		t.Error("attributes must be non-nil")
	}
}

func TestMergeNameAuthority(t *testing.T) {
	m := testMerger(t, PageFirst)

	// Structured name replaces the seed name.
	out := m.Merge(&Inputs{
		Seed:     seed("https://vendor.test/p1", "Seed Name"),
		FieldMap: map[string]any{"name": []any{"Page Product Name"}},
		Model:    &llm.Fields{Name: "Model Name"},
	})
	if out.Name != "Page Product Name" {
		t.Errorf("name = %q, want structured replacement", out.Name)
	}

	// Without a structured name the seed stands; the model never renames.
	out = m.Merge(&Inputs{
		Seed:  seed("https://vendor.test/p1", "Seed Name"),
		Model: &llm.Fields{Name: "Model Name"},
	})
	if out.Name != "Seed Name" {
		t.Errorf("name = %q, model name must stay advisory", out.Name)
	}
}

func TestMergeAttributesWholesale(t *testing.T) {
	m := testMerger(t, PageFirst)

	attrs := []models.Attribute{
		{Key: "volume", Value: "10uL"},
		{Key: "material", Value: "polypropylene"},
	}
	out := m.Merge(&Inputs{
		Seed:  seed("https://vendor.test/p1", "Tips"),
		Model: &llm.Fields{Attributes: attrs},
	})

	if len(out.Attributes) != 2 || out.Attributes[0].Key != "volume" {
		t.Errorf("attributes = %v, want model's pairs in order", out.Attributes)
	}
}

func TestMergeDescriptionTruncated(t *testing.T) {
	m := testMerger(t, PageFirst)

	long := strings.Repeat("a", 250)
	out := m.Merge(&Inputs{
		Seed:  seed("https://vendor.test/p1", "Tips"),
		Model: &llm.Fields{Description: long},
	})

	if len(out.Description) != 200 {
		t.Errorf("description length = %d, want 200", len(out.Description))
	}
}

func TestMergeKeepsURL(t *testing.T) {
	m := testMerger(t, PageFirst)

	out := m.Merge(&Inputs{
		Seed:     seed("https://vendor.test/p1?ref=abc", "Tips"),
		FieldMap: map[string]any{"identifier": []any{"ABC123"}},
	})
	if out.URL != "https://vendor.test/p1?ref=abc" {
		t.Errorf("url = %q, must be carried verbatim", out.URL)
	}
}

func TestParsePolicy(t *testing.T) {
	if _, err := ParsePolicy("page_first"); err != nil {
		t.Errorf("page_first should parse: %v", err)
	}
	if _, err := ParsePolicy("model_first"); err != nil {
		t.Errorf("model_first should parse: %v", err)
	}
	if _, err := ParsePolicy("newest_first"); err == nil {
		t.Error("unknown policy should fail")
	}
}
