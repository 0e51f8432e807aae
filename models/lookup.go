package models

// LookupResponse is the immediate response for POST /api/v1/lookup.
type LookupResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// LookupStatusResponse is the response for GET /api/v1/lookup/:id.
type LookupStatusResponse struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	Completed int              `json:"completed"`
	Total     int              `json:"total"`
	Products  []*ProductRecord `json:"products,omitempty"`
}

// LookupJob tracks an in-progress lookup enrichment job.
type LookupJob struct {
	ID        string
	Status    string // "processing", "completed", "partial", "failed"
	Total     int
	Completed int
	Products  []*ProductRecord
	CreatedAt int64 // unix timestamp
}
