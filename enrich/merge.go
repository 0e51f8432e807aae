// Package enrich assembles final product records: the merge engine resolves
// each field from its candidate sources, and the orchestrator walks seed
// batches through crawl, extraction and model verification.
package enrich

import (
	"fmt"
	"log/slog"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/extract"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/llm"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/metrics"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

// Policy selects the field-merge precedence variant. The two variants are
// never mixed within a run.
type Policy string

const (
	// PageFirst resolves each field from page-derived signal (structured
	// pass, pattern bank, site hints) before consulting the model. This is
	// the canonical policy.
	PageFirst Policy = "page_first"

	// ModelFirst consults the model before the page-derived signal.
	ModelFirst Policy = "model_first"
)

// ParsePolicy maps a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PageFirst, ModelFirst:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", s)
	}
}

// Inputs carries everything one record's merge can draw from. FieldMap,
// Text and Model may be zero-valued when the corresponding stage failed;
// the merge only ever narrows to the sources that are present.
type Inputs struct {
	// Seed is the input record (URL identity plus any discovery-supplied
	// field values).
	Seed *models.ProductRecord

	// FieldMap is the structured selector-pass output.
	FieldMap map[string]any

	// Text is the Markdown page rendering, scanned by the pattern bank and
	// the site hints.
	Text string

	// Model is the verifier's candidate set, nil when the model stage
	// produced nothing.
	Model *llm.Fields
}

// candidate is one proposed value for a field, labeled with its source for
// rejection logging.
type candidate struct {
	source string
	value  string
}

// Merger resolves merged records. Construction wires the validation rules
// and the fallback strategies once; Merge itself is pure and safe for
// concurrent use.
type Merger struct {
	validator *extract.Validator
	bank      *extract.Bank
	sites     *extract.Overrides
	policy    Policy
	log       *slog.Logger
}

// NewMerger builds a Merger with the given strategies and policy.
func NewMerger(validator *extract.Validator, bank *extract.Bank, sites *extract.Overrides, policy Policy) *Merger {
	return &Merger{
		validator: validator,
		bank:      bank,
		sites:     sites,
		policy:    policy,
		log:       slog.With("component", "merge"),
	}
}

// Merge assembles the output record for one seed. Every field lands on
// either a validated value or the sentinel; the URL is carried over
// untouched. Candidates are tried in policy order and each one is
// validator-gated — an invalid candidate falls through to the next source
// rather than surviving into the output.
func (m *Merger) Merge(in *Inputs) *models.ProductRecord {
	out := models.NewRecord(in.Seed.URL, in.Seed.Name)

	hints := m.siteHints(in.Seed.URL)

	out.Identifier = m.resolve(extract.FieldIdentifier, m.chain(
		m.structured(in, extract.FieldIdentifier),
		m.pattern(in, extract.CategoryIdentifier),
		m.hint(in, hints, extract.FieldIdentifier),
		m.model(in, extract.FieldIdentifier),
		candidate{},
	))
	out.PartNumber = m.resolve(extract.FieldPartNumber, m.chain(
		m.structured(in, extract.FieldPartNumber),
		m.pattern(in, extract.CategoryPartNumber),
		m.hint(in, hints, extract.FieldPartNumber),
		m.model(in, extract.FieldPartNumber),
		candidate{},
	))
	out.Brand = m.resolve(extract.FieldBrand, m.chain(
		m.structured(in, extract.FieldBrand),
		candidate{},
		m.hint(in, hints, extract.FieldBrand),
		m.model(in, extract.FieldBrand),
		candidate{source: "seed", value: in.Seed.Brand},
	))
	out.Price = m.resolve(extract.FieldPrice, m.chain(
		m.structured(in, extract.FieldPrice),
		m.pattern(in, extract.CategoryPrice),
		m.hint(in, hints, extract.FieldPrice),
		candidate{},
		candidate{source: "seed", value: in.Seed.Price},
	))
	out.Description = m.resolve(extract.FieldDescription, m.chain(
		m.structured(in, extract.FieldDescription),
		candidate{},
		candidate{},
		m.model(in, extract.FieldDescription),
		candidate{source: "seed", value: in.Seed.Description},
	))

	out.Name = m.resolveName(in)
	out.Attributes = m.attributes(in)

	// Volume turns up in page text often enough to be worth surfacing in
	// the logs, but it is an attribute concern, not a record field.
	if v, ok := m.bank.Match(in.Text, extract.CategoryVolume); ok {
		m.log.Debug("volume detected in page text", "url", in.Seed.URL, "volume", v)
	}

	return out
}

// chain orders the candidate sources for the active policy. Arguments are
// in page-first order: structured, pattern, hint, model, seed. Zero-valued
// placeholder candidates keep the call sites aligned and are skipped by
// resolve. The seed stays the last resort under both policies.
func (m *Merger) chain(structured, pattern, hint, model, seed candidate) []candidate {
	if m.policy == ModelFirst {
		return []candidate{model, structured, pattern, hint, seed}
	}
	return []candidate{structured, pattern, hint, model, seed}
}

// resolve walks the chain and returns the first candidate that survives
// validation, else the sentinel.
func (m *Merger) resolve(field string, chain []candidate) string {
	for _, c := range chain {
		if c.value == "" || c.value == models.NotFound {
			continue
		}
		validated := m.validator.Field(field, c.value)
		if validated != models.NotFound {
			return validated
		}
		metrics.RecordValidationRejection(field)
		m.log.Debug("candidate rejected",
			"field", field, "source", c.source, "value", c.value,
		)
	}
	return models.NotFound
}

// resolveName applies the name authority rule: the seed name stands unless
// the structured pass yields an explicit replacement. The model's name is
// advisory only — logged when it disagrees, never applied.
func (m *Merger) resolveName(in *Inputs) string {
	name := in.Seed.Name
	if s, ok := extract.Normalize(in.FieldMap, extract.FieldName); ok {
		name = s
	}
	if in.Model != nil && in.Model.Name != "" && in.Model.Name != name {
		m.log.Debug("model name suggestion differs",
			"url", in.Seed.URL, "name", name, "model_name", in.Model.Name,
		)
	}
	return m.validator.Field(extract.FieldName, name)
}

// attributes takes the verifier's pairs wholesale; the list is always
// non-nil so records serialize as [] rather than null.
func (m *Merger) attributes(in *Inputs) []models.Attribute {
	if in.Model == nil || len(in.Model.Attributes) == 0 {
		return []models.Attribute{}
	}
	return in.Model.Attributes
}

func (m *Merger) structured(in *Inputs, field string) candidate {
	if v, ok := extract.Normalize(in.FieldMap, field); ok {
		return candidate{source: "structured", value: v}
	}
	return candidate{}
}

func (m *Merger) pattern(in *Inputs, category string) candidate {
	if v, ok := m.bank.Match(in.Text, category); ok {
		return candidate{source: "pattern", value: v}
	}
	return candidate{}
}

func (m *Merger) hint(in *Inputs, hints map[string][]string, field string) candidate {
	if len(hints[field]) == 0 {
		return candidate{}
	}
	if v := m.sites.Apply("", hints[field], in.Text); v != "" {
		return candidate{source: "site", value: v}
	}
	return candidate{}
}

func (m *Merger) model(in *Inputs, field string) candidate {
	if in.Model == nil {
		return candidate{}
	}
	var v string
	switch field {
	case extract.FieldIdentifier:
		v = in.Model.Identifier
	case extract.FieldPartNumber:
		v = in.Model.PartNumber
	case extract.FieldBrand:
		v = in.Model.Brand
	case extract.FieldDescription:
		v = in.Model.Description
	}
	if v == "" {
		return candidate{}
	}
	return candidate{source: "model", value: v}
}

func (m *Merger) siteHints(url string) map[string][]string {
	if hints, ok := m.sites.Hints(url); ok {
		return hints
	}
	return nil
}
