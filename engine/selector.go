package engine

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// maxFieldValues bounds how many matched values one field keeps. Product
// pages repeat prices and SKUs in listings, carts and recommendation rails;
// downstream only ever looks at the leading entries.
const maxFieldValues = 8

// SelectorPass runs the structured extraction schema over fetched HTML.
// A schema maps a logical field name to an ordered CSS selector list; the
// first selector with at least one non-empty match supplies that field's
// values. Selectors are compiled once at construction.
type SelectorPass struct {
	fields map[string][]cascadia.Selector
}

// NewSelectorPass compiles schema. Any selector that fails to compile makes
// construction fail, so malformed configuration surfaces at startup.
func NewSelectorPass(schema map[string][]string) (*SelectorPass, error) {
	fields := make(map[string][]cascadia.Selector, len(schema))
	for field, selectors := range schema {
		compiled := make([]cascadia.Selector, 0, len(selectors))
		for _, sel := range selectors {
			c, err := cascadia.Compile(sel)
			if err != nil {
				return nil, fmt.Errorf("selector pass: field %q selector %q: %w", field, sel, err)
			}
			compiled = append(compiled, c)
		}
		fields[field] = compiled
	}
	return &SelectorPass{fields: fields}, nil
}

// Extract parses rawHTML once and resolves every schema field. Entries are
// list-valued: all matches of the winning selector, in document order. A
// field with no match across its selector list is absent from the map.
func (s *SelectorPass) Extract(rawHTML string) map[string]any {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return map[string]any{}
	}

	fieldMap := make(map[string]any, len(s.fields))
	for field, selectors := range s.fields {
		for _, sel := range selectors {
			values := collectValues(doc.FindMatcher(sel))
			if len(values) > 0 {
				fieldMap[field] = values
				break
			}
		}
	}
	return fieldMap
}

// collectValues gathers the text of each matched element, capped at
// maxFieldValues. Elements without text content fall back to their
// content/value attribute (meta tags, inputs).
func collectValues(sel *goquery.Selection) []any {
	values := make([]any, 0, maxFieldValues)
	sel.EachWithBreak(func(_ int, node *goquery.Selection) bool {
		if v := nodeValue(node); v != "" {
			values = append(values, v)
		}
		return len(values) < maxFieldValues
	})
	return values
}

func nodeValue(node *goquery.Selection) string {
	if t := squashSpace(node.Text()); t != "" {
		return t
	}
	for _, attr := range []string{"content", "value"} {
		if v, ok := node.Attr(attr); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// squashSpace collapses runs of whitespace to single spaces so values pulled
// from deeply nested markup stay comparable.
func squashSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
