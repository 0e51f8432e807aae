package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

// Logical field names shared by all extraction stages.
const (
	FieldName        = "name"
	FieldIdentifier  = "identifier"
	FieldPartNumber  = "part_number"
	FieldBrand       = "brand"
	FieldPrice       = "price"
	FieldDescription = "description"
)

// Limits holds the per-field length bounds. The shape patterns are fixed;
// the bounds can be overridden from the extraction config file.
type Limits struct {
	IdentifierMin  int
	IdentifierMax  int
	PartNumberMin  int
	PartNumberMax  int
	BrandMin       int
	BrandMax       int
	DescriptionMax int
}

// DefaultLimits returns the standard length bounds.
func DefaultLimits() Limits {
	return Limits{
		IdentifierMin:  2,
		IdentifierMax:  20,
		PartNumberMin:  2,
		PartNumberMax:  25,
		BrandMin:       2,
		BrandMax:       50,
		DescriptionMax: 200,
	}
}

var (
	identifierShape = regexp.MustCompile(`(?i)^[A-Z0-9\-_/]+$`)
	partNumberShape = regexp.MustCompile(`(?i)^[A-Z0-9\-_/.]+$`)

	// Label noise around catalog numbers, e.g. "SKU: ABC123" or "ABC123 item".
	// A separator is required so values that merely end in a label word
	// (e.g. "GRID") are left alone.
	labelPrefix = regexp.MustCompile(`(?i)^(sku|part|number|id|code|item)[:\s]+`)
	labelSuffix = regexp.MustCompile(`(?i)[:\s]+(sku|part|number|id|code|item)$`)

	// Accepted price shapes, tried in order: "$145.00", "$ 145.00",
	// "145.00 USD", "145.00".
	priceShapes = []*regexp.Regexp{
		regexp.MustCompile(`^\$\d+[,\d]*\.?\d*$`),
		regexp.MustCompile(`^\$\s*\d+[,\d]*\.?\d*$`),
		regexp.MustCompile(`^\d+[,\d]*\.?\d*\s*USD$`),
		regexp.MustCompile(`^\d+[,\d]*\.?\d*$`),
	}

	// Last resort: a $-prefixed amount embedded anywhere in the string.
	embeddedPrice = regexp.MustCompile(`\$\d+[,\d]*\.?\d*`)
)

// Validator collapses invalid field values to the sentinel and normalizes
// valid ones. Validation is idempotent: a sentinel or an already-valid value
// passes through unchanged.
type Validator struct {
	limits Limits
}

// NewValidator creates a Validator with the given length bounds.
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Field validates value under the rules for the named field. Unknown field
// names get only the empty-to-sentinel treatment.
func (v *Validator) Field(field, value string) string {
	switch field {
	case FieldIdentifier:
		return v.catalogNumber(value, identifierShape, v.limits.IdentifierMin, v.limits.IdentifierMax)
	case FieldPartNumber:
		return v.catalogNumber(value, partNumberShape, v.limits.PartNumberMin, v.limits.PartNumberMax)
	case FieldBrand:
		return v.brand(value)
	case FieldPrice:
		return v.Price(value)
	case FieldDescription:
		return v.Description(value)
	default:
		value = strings.TrimSpace(value)
		if value == "" {
			return models.NotFound
		}
		return value
	}
}

// catalogNumber handles identifier and part_number: strip label noise, then
// enforce length bounds and the charset shape.
func (v *Validator) catalogNumber(value string, shape *regexp.Regexp, min, max int) string {
	value = strings.TrimSpace(value)
	if value == "" || value == models.NotFound {
		return models.NotFound
	}

	value = labelPrefix.ReplaceAllString(value, "")
	value = labelSuffix.ReplaceAllString(value, "")
	value = strings.TrimSpace(value)

	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		return models.NotFound
	}
	if !shape.MatchString(value) {
		return models.NotFound
	}
	return value
}

func (v *Validator) brand(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || value == models.NotFound {
		return models.NotFound
	}
	n := utf8.RuneCountInString(value)
	if n < v.limits.BrandMin || n > v.limits.BrandMax {
		return models.NotFound
	}
	return value
}

// Description truncates over-long values instead of rejecting them.
func (v *Validator) Description(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || value == models.NotFound {
		return models.NotFound
	}
	if utf8.RuneCountInString(value) > v.limits.DescriptionMax {
		runes := []rune(value)
		value = strings.TrimSpace(string(runes[:v.limits.DescriptionMax]))
	}
	return value
}

// Price accepts the four known price shapes as-is. When none match, a
// $-prefixed amount embedded in the string is extracted; anything else is
// sentineled.
func (v *Validator) Price(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || value == models.NotFound {
		return models.NotFound
	}

	for _, shape := range priceShapes {
		if shape.MatchString(value) {
			return value
		}
	}

	if m := embeddedPrice.FindString(value); m != "" {
		return m
	}
	return models.NotFound
}
