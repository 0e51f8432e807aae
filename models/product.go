package models

// NotFound is the sentinel written into any field for which no confident
// value could be resolved. Output fields are never empty strings: they hold
// either a validated value or exactly this marker.
const NotFound = "Not found"

// ProductRecord is the unit of work and of output. A record enters the
// pipeline with only the seed fields populated (URL, Name, and sometimes
// Description from the discovery snippet) and leaves with every field either
// resolved or sentineled.
type ProductRecord struct {
	// URL is the opaque identity key. It is never altered by any
	// extraction stage and correlates input and output batches.
	URL string `json:"url"`

	// Name is the seed product name from discovery. Extraction stages only
	// replace it when the structured pass surfaces an explicit name.
	Name string `json:"name"`

	// Identifier is the vendor SKU.
	Identifier string `json:"identifier"`

	// PartNumber is the manufacturer part number.
	PartNumber string `json:"part_number"`

	// Brand is the manufacturer or marketed brand.
	Brand string `json:"brand"`

	// Price is the listed price as displayed on the page (e.g. "$145.00").
	Price string `json:"price"`

	// Description is a short product description, truncated to 200 chars.
	Description string `json:"description"`

	// Attributes holds additional key/value details surfaced by the model
	// stage (e.g. volume, material, sterility). Order is preserved and keys
	// may repeat. Always serialized as a list, never null.
	Attributes []Attribute `json:"attributes"`
}

// Attribute is one key/value detail pair. Both sides are non-empty.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewRecord creates a record for the given URL with every extraction field
// sentineled and a non-nil attribute list.
func NewRecord(url, name string) *ProductRecord {
	return &ProductRecord{
		URL:         url,
		Name:        name,
		Identifier:  NotFound,
		PartNumber:  NotFound,
		Brand:       NotFound,
		Price:       NotFound,
		Description: NotFound,
		Attributes:  []Attribute{},
	}
}

// Degraded builds the output record for a seed whose processing failed.
// URL and Name are carried verbatim; Brand, Price and Description keep their
// seed values when present; Identifier and PartNumber are sentineled.
func Degraded(seed *ProductRecord) *ProductRecord {
	out := NewRecord(seed.URL, seed.Name)
	if seed.Brand != "" {
		out.Brand = seed.Brand
	}
	if seed.Price != "" {
		out.Price = seed.Price
	}
	if seed.Description != "" {
		out.Description = seed.Description
	}
	return out
}
