package dto

import "github.com/octobees/leads-extractor/internal/entity"

// EnrichRequest carries the records whose emails or phones should be filled in.
type EnrichRequest struct {
	Businesses []entity.BusinessRecord `json:"businesses"`
}

// EnrichResponse returns the enriched records with their counters.
type EnrichResponse struct {
	Businesses []entity.BusinessRecord `json:"businesses"`
	Stats      entity.EnrichStats      `json:"stats"`
}
