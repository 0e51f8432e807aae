package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/metrics"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

// maxPromptContent bounds how much page text goes into the prompt. Product
// pages front-load the relevant details; past this point it's mostly
// footer, navigation and recommendation noise.
const maxPromptContent = 4000

// Fields is the model's candidate set for one record. An empty string means
// the model offered nothing usable for that field — "Not found" answers are
// already normalized away. Name is advisory: the merge only logs it.
type Fields struct {
	Identifier  string
	PartNumber  string
	Brand       string
	Description string
	Name        string
	Attributes  []models.Attribute
}

// Empty reports whether the model produced no candidate at all.
func (f *Fields) Empty() bool {
	return f.Identifier == "" && f.PartNumber == "" && f.Brand == "" &&
		f.Description == "" && f.Name == "" && len(f.Attributes) == 0
}

// Verifier runs the model stage for one record: build the prompt, call the
// provider under a hard deadline, parse the output. Failures are typed and
// local — the caller maps them to an empty candidate set, they never stall
// or abort a batch.
type Verifier struct {
	provider Provider
	timeout  time.Duration
	log      *slog.Logger
}

// NewVerifier wires a provider with the configured per-call timeout.
func NewVerifier(provider Provider, timeout time.Duration) *Verifier {
	return &Verifier{
		provider: provider,
		timeout:  timeout,
		log:      slog.With("component", "verifier"),
	}
}

// Provider names the underlying backend, for health reporting.
func (v *Verifier) Provider() string {
	return v.provider.Name()
}

// Verify returns the model's candidate set for a record. A transport error
// or deadline is MODEL_UNAVAILABLE; unparseable output is PARSE_FAILED.
func (v *Verifier) Verify(ctx context.Context, productName, pageText string) (*Fields, *models.LookupError) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	raw, err := v.provider.Generate(ctx, BuildPrompt(productName, pageText))
	if err != nil {
		metrics.RecordModelCall(v.provider.Name(), "error")
		return nil, models.NewLookupError(models.ErrCodeModelUnavailable,
			"model call failed", err)
	}

	fields, err := ParseFields(raw)
	if err != nil {
		metrics.RecordModelCall(v.provider.Name(), "parse_error")
		v.log.Warn("model output not parseable", "provider", v.provider.Name(), "error", err)
		return nil, models.NewLookupError(models.ErrCodeParseFailed,
			"model output not parseable", err)
	}

	metrics.RecordModelCall(v.provider.Name(), "ok")
	return fields, nil
}

const promptTemplate = `You are an expert at extracting product information from medical and laboratory equipment websites.

Extract structured product information from the following markdown content for a medical/lab product.
The product appears to be: %s

CRITICAL EXTRACTION RULES FOR MEDICAL/LAB PRODUCTS:

1. SKU ID (Stock Keeping Unit):
- Look for: SKU, Item #, Product Code, Catalog Number, Product ID
- Also check for product identifiers in JavaScript blocks, such as 'item_id', 'psku', 'product_id', or similar keys, even if not visible on the page.
- Common formats: ABC123, 123456, ABC-123, 123-456

2. Part Number:
- Look for: Part #, Model #, Catalog Number, Item Number, MPN (Manufacturer Part Number)
- Also check for part numbers in JavaScript or data attributes.
- Common formats: 960A/10, 0.1-10uL, TIP-123, ABC123

3. Brand/Manufacturer:
- Look for: Brand name, Manufacturer, Company name
- Cross-check with the main product title, meta tags, or page header.
- If not found, try to infer from copyright, footer, or page title.
- Example: "Brand: Eppendorf", "Manufacturer: Gilson", "by Thermo Fisher Scientific"

4. Description:
- Look for: Product description, Features, Specifications summary
- Focus on key technical details, capacity, volume, or specifications
- If not found, summarize the most relevant technical or usage info in under 200 characters.

5. Product Name:
- Extract the main product name as shown on the product page or title.
- Remove marketing phrases, taglines, or extra descriptions (e.g., remove text after a dash or ellipsis).
- Focus on the concise, core product identifier (e.g., '0.1-10uL Certified Pipette Tips').
- Cross-check with the page header or main title.

6. Key Attributes:
- Extract key attributes (such as volume, type, color, pack size, material, etc.) from the product name and description.
- Return as a list of key-value pairs, e.g., [{"key": "volume", "value": "10uL"}, {"key": "type", "value": "pipette tip"}].
- Only include attributes that are clearly present in the text.

For each field, only extract if you are confident it matches the visible content on the product page. If not found or unsure, return "Not found".

Return ONLY a valid JSON object with these exact fields:
{
    "sku_id": "extracted SKU or 'Not found'",
    "part_number": "extracted part number or 'Not found'",
    "brand": "brand/manufacturer name or 'Not found'",
    "description": "brief description under 200 chars or 'Not found'",
    "product_name": "main product name or 'Not found'",
    "attributes": [
        {"key": "attribute name", "value": "attribute value"}
    ]
}

Markdown Content:
%s

Respond with valid JSON only. No introduction or explanation.`

// BuildPrompt renders the extraction prompt for one record. productName
// grounds the model on which product the page is about; pageText is the
// Markdown rendering of the page, truncated to maxPromptContent.
func BuildPrompt(productName, pageText string) string {
	if len(pageText) > maxPromptContent {
		pageText = pageText[:maxPromptContent]
	}
	return fmt.Sprintf(promptTemplate, productName, pageText)
}

// ParseFields extracts the candidate set from raw model output. Models
// wrap JSON in markdown fences or prose despite instructions, so parsing
// is tolerant: fences are stripped, then everything between the first '{'
// and the last '}' is decoded. Scalar values of the wrong JSON type are
// stringified; "Not found" answers become empty strings; attribute entries
// missing a key or value are dropped.
func ParseFields(raw string) (*Fields, error) {
	cleaned := stripFences(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}

	return &Fields{
		Identifier:  answer(payload, "sku_id"),
		PartNumber:  answer(payload, "part_number"),
		Brand:       answer(payload, "brand"),
		Description: answer(payload, "description"),
		Name:        answer(payload, "product_name"),
		Attributes:  attributeList(payload["attributes"]),
	}, nil
}

// stripFences removes markdown code fences around the payload.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// answer resolves one scalar field, treating "Not found" (any casing) as
// absent.
func answer(payload map[string]any, key string) string {
	v := scalar(payload[key])
	if strings.EqualFold(v, models.NotFound) {
		return ""
	}
	return v
}

func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64, bool:
		return fmt.Sprintf("%v", s)
	default:
		return ""
	}
}

// attributeList filters the model's attribute output down to well-formed
// pairs. Anything that isn't a list of {key, value} objects with non-empty
// sides is dropped rather than erroring the whole parse.
func attributeList(v any) []models.Attribute {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	attrs := make([]models.Attribute, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key := scalar(entry["key"])
		value := scalar(entry["value"])
		if key == "" || value == "" {
			continue
		}
		attrs = append(attrs, models.Attribute{Key: key, Value: value})
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
