package engine

import (
	"testing"
)

const productHTML = `<html><head>
<title>BMSP7700 Serological Pipette</title>
<meta class="meta-price" content="$161.70">
</head><body>
<h1>Serological Pipette 10mL</h1>
<div class="sku">BMSP7700T</div>
<div class="sku"></div>
<div class="sku">SECOND-SKU</div>
<span class="price">$161.70</span>
<p class="product-description">Sterile, individually
   wrapped serological pipette.</p>
</body></html>`

func TestSelectorPassFirstSelectorWins(t *testing.T) {
	pass, err := NewSelectorPass(map[string][]string{
		"name":       {"h1", ".product-title"},
		"identifier": {".catalog-number", ".sku"},
	})
	if err != nil {
		t.Fatalf("NewSelectorPass error: %v", err)
	}

	fieldMap := pass.Extract(productHTML)

	name, ok := fieldMap["name"].([]any)
	if !ok || len(name) != 1 || name[0] != "Serological Pipette 10mL" {
		t.Errorf("name = %v, want [Serological Pipette 10mL]", fieldMap["name"])
	}

	// .catalog-number matches nothing, so .sku supplies the values; the
	// empty element is skipped.
	ids, ok := fieldMap["identifier"].([]any)
	if !ok || len(ids) != 2 {
		t.Fatalf("identifier = %v, want two values", fieldMap["identifier"])
	}
	if ids[0] != "BMSP7700T" || ids[1] != "SECOND-SKU" {
		t.Errorf("identifier values = %v", ids)
	}
}

func TestSelectorPassAbsentField(t *testing.T) {
	pass, err := NewSelectorPass(map[string][]string{
		"brand": {".brand", ".manufacturer"},
	})
	if err != nil {
		t.Fatalf("NewSelectorPass error: %v", err)
	}

	fieldMap := pass.Extract(productHTML)
	if _, ok := fieldMap["brand"]; ok {
		t.Errorf("unmatched field should be absent, got %v", fieldMap["brand"])
	}
}

func TestSelectorPassAttrFallback(t *testing.T) {
	pass, err := NewSelectorPass(map[string][]string{
		"price": {".meta-price"},
	})
	if err != nil {
		t.Fatalf("NewSelectorPass error: %v", err)
	}

	fieldMap := pass.Extract(productHTML)
	price, ok := fieldMap["price"].([]any)
	if !ok || len(price) != 1 || price[0] != "$161.70" {
		t.Errorf("price = %v, want content attribute value", fieldMap["price"])
	}
}

func TestSelectorPassSquashesWhitespace(t *testing.T) {
	pass, err := NewSelectorPass(map[string][]string{
		"description": {".product-description"},
	})
	if err != nil {
		t.Fatalf("NewSelectorPass error: %v", err)
	}

	fieldMap := pass.Extract(productHTML)
	desc := fieldMap["description"].([]any)
	if desc[0] != "Sterile, individually wrapped serological pipette." {
		t.Errorf("description = %q, want collapsed whitespace", desc[0])
	}
}

func TestSelectorPassCapsValues(t *testing.T) {
	html := "<html><body>"
	for i := 0; i < 20; i++ {
		html += "<span class=\"p\">v</span>"
	}
	html += "</body></html>"

	pass, err := NewSelectorPass(map[string][]string{"price": {".p"}})
	if err != nil {
		t.Fatalf("NewSelectorPass error: %v", err)
	}

	values := pass.Extract(html)["price"].([]any)
	if len(values) != maxFieldValues {
		t.Errorf("got %d values, want cap %d", len(values), maxFieldValues)
	}
}

func TestSelectorPassBadSelector(t *testing.T) {
	_, err := NewSelectorPass(map[string][]string{"name": {"h1[["}})
	if err == nil {
		t.Fatal("expected compile error for malformed selector")
	}
}

func TestSelectorPassMalformedHTMLIsEmptyMap(t *testing.T) {
	pass, err := NewSelectorPass(map[string][]string{"name": {"h1"}})
	if err != nil {
		t.Fatalf("NewSelectorPass error: %v", err)
	}
	// The HTML parser is forgiving; even garbage yields a document, so the
	// result is an empty map rather than a panic.
	fieldMap := pass.Extract("<<<<not html")
	if len(fieldMap) != 0 {
		t.Errorf("fieldMap = %v, want empty", fieldMap)
	}
}
