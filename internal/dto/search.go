package dto

// SearchRequest is the payload used by the search endpoint.
type SearchRequest struct {
	Query string `json:"query"`
	Page  int    `json:"page,omitempty"`
}
