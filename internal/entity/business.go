package entity

// BusinessRecord is the canonical unit returned by every extraction path.
// Empty strings mean the value is unknown.
type BusinessRecord struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Website  string `json:"website"`
	Address  string `json:"address"`
	Category string `json:"category"`
}

// Pagination describes best-effort paging metadata for a search page.
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	TotalPages      int  `json:"totalPages"`
	TotalResults    int  `json:"totalResults,omitempty"`
}

// SearchResponse is one page of search-engine listings.
type SearchResponse struct {
	Businesses []BusinessRecord `json:"businesses"`
	Pagination Pagination       `json:"pagination"`
}
