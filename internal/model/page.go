package model

// PagedItems mirrors the backend paginator for item listings, as found under
// the response's "data" key.
type PagedItems struct {
	Data        []Item `json:"data"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
}

// PagedLoans mirrors the backend paginator for loan listings.
type PagedLoans struct {
	Data        []Loan `json:"data"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
}
