package entity

// ErrorCategory groups per-URL failures for reporting.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryNetwork    ErrorCategory = "network"
	CategoryContent    ErrorCategory = "content"
	CategoryTimeout    ErrorCategory = "timeout"
	CategoryUnknown    ErrorCategory = "unknown"
)

// Categories lists every error category in reporting order.
var Categories = []ErrorCategory{CategoryValidation, CategoryNetwork, CategoryContent, CategoryTimeout, CategoryUnknown}

// DetailedError records why a single input URL failed in a batch.
type DetailedError struct {
	URL      string        `json:"url"`
	Error    string        `json:"error"`
	Category ErrorCategory `json:"category"`
}

// ScrapeStats summarises a custom scrape batch.
type ScrapeStats struct {
	Total            int                   `json:"total"`
	Successful       int                   `json:"successful"`
	Failed           int                   `json:"failed"`
	ErrorsByCategory map[ErrorCategory]int `json:"errorsByCategory"`
}

// NewScrapeStats builds stats from the outcome lists.
func NewScrapeStats(total, successful int, errs []DetailedError) ScrapeStats {
	byCategory := make(map[ErrorCategory]int, len(Categories))
	for _, c := range Categories {
		byCategory[c] = 0
	}
	for _, e := range errs {
		byCategory[e.Category]++
	}
	return ScrapeStats{
		Total:            total,
		Successful:       successful,
		Failed:           len(errs),
		ErrorsByCategory: byCategory,
	}
}

// EnrichStats summarises an enrichment pass over existing records.
type EnrichStats struct {
	Processed int `json:"processed"`
	Enriched  int `json:"enriched"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}
