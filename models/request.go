package models

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	// Query is the free-text product query. Required.
	Query string `json:"query" binding:"required,min=2"`

	// MaxResults caps the number of discovery hits fed into the pipeline.
	// Default: configured LOOKUP_MAX_SEARCH_RESULTS. Max: 10 (Google API cap).
	MaxResults int `json:"max_results,omitempty" binding:"omitempty,min=1,max=10"`
}

// Defaults applies default values to unset fields. The fallback is the
// server's configured result count, passed in by the handler.
func (r *SearchRequest) Defaults(maxResults int) {
	if r.MaxResults == 0 {
		r.MaxResults = maxResults
	}
	if r.MaxResults > 10 {
		r.MaxResults = 10
	}
}

// LookupRequest is the payload for POST /api/v1/lookup. It enriches
// caller-provided seeds without a discovery step.
type LookupRequest struct {
	// Products is the list of seed records to enrich. Required.
	Products []SeedProduct `json:"products" binding:"required,min=1,max=50,dive"`
}

// SeedProduct is one caller-provided seed. Only URL is required; any other
// populated field is preserved through the pipeline as a fallback candidate.
type SeedProduct struct {
	URL         string `json:"url" binding:"required,url"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Price       string `json:"price,omitempty"`
}

// ToRecord converts a seed into the pipeline's input record shape.
func (s *SeedProduct) ToRecord() *ProductRecord {
	return &ProductRecord{
		URL:         s.URL,
		Name:        s.Name,
		Description: s.Description,
		Brand:       s.Brand,
		Price:       s.Price,
		Attributes:  []Attribute{},
	}
}
