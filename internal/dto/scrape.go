package dto

// ScrapeRequest is the payload of the custom scrape endpoint.
type ScrapeRequest struct {
	URLs         []string `json:"urls"`
	BusinessType string   `json:"businessType,omitempty"`
	Location     string   `json:"location,omitempty"`
}
