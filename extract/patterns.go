package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern-bank category names. The volume category is scanned for logging
// only and never surfaced on a record.
const (
	CategoryIdentifier = "identifier"
	CategoryPartNumber = "part_number"
	CategoryVolume     = "volume"
	CategoryPrice      = "price"
)

// DefaultPatterns returns the built-in pattern sources per category. The
// extraction config file may append further patterns; order within a
// category is significant.
func DefaultPatterns() map[string][]string {
	return map[string][]string{
		CategoryIdentifier: {
			`[A-Z]{2,4}\d{3,6}[A-Z]?`, // e.g. BMSP7700T
			`\d{6,8}`,                 // e.g. 02681437
			`[A-Z]+\d+[A-Z]+`,         // e.g. ABC123DEF
			`\d{3,4}-\d{3,4}`,         // e.g. 1234-5678
		},
		CategoryPartNumber: {
			`\d{3,4}[A-Z]?/\d{1,3}`,                // e.g. 702N/10
			`[A-Z]+\d{2,4}[A-Z]?`,                  // e.g. EP22F
			`\d{1,2}\.\d{1,2}-\d{1,2}[A-Z]?[L|ul]`, // e.g. 0.5-10L
			`[A-Z]+-\d{3,4}`,                       // e.g. CT-229
		},
		CategoryVolume: {
			`\d{1,3}[\.\d]*\s*[µμ]?[Ll]`,
			`\d{1,3}[\.\d]*\s*microliter`,
			`\d{1,3}[\.\d]*\s*milliliter`,
		},
		CategoryPrice: {
			`\$\d+[,\d]*\.?\d*`,
			`\$\s*\d+[,\d]*\.?\d*`,
			`\d+[,\d]*\.?\d*\s*USD`,
		},
	}
}

// Bank holds ordered, case-insensitive regular expressions per field
// category, used as a text-scan fallback when structured extraction yields
// nothing. Patterns are data: the bank is built once at startup and is
// read-only afterwards.
type Bank struct {
	categories map[string][]*regexp.Regexp
}

// NewBank compiles the given pattern sources. A pattern that fails to
// compile makes the whole bank fail, so bad configuration is caught at
// startup rather than mid-batch.
func NewBank(sources map[string][]string) (*Bank, error) {
	categories := make(map[string][]*regexp.Regexp, len(sources))
	for category, patterns := range sources {
		compiled := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				return nil, fmt.Errorf("pattern bank: category %q pattern %q: %w", category, p, err)
			}
			compiled = append(compiled, re)
		}
		categories[category] = compiled
	}
	return &Bank{categories: categories}, nil
}

// Match scans text with the ordered patterns for category and returns the
// first pattern's first match, trimmed. Matches of 2 characters or fewer
// are noise (stray digits, unit letters) and are skipped in favour of the
// next pattern. ok is false when no pattern produces a meaningful match.
func (b *Bank) Match(text, category string) (string, bool) {
	if text == "" {
		return "", false
	}
	patterns, ok := b.categories[category]
	if !ok {
		return "", false
	}

	for _, re := range patterns {
		m := strings.TrimSpace(re.FindString(text))
		if len(m) > 2 {
			return m, true
		}
	}
	return "", false
}

// Has reports whether the bank carries patterns for category.
func (b *Bank) Has(category string) bool {
	return len(b.categories[category]) > 0
}
