package dto

import "github.com/octobees/leads-extractor/internal/entity"

// ExportRequest selects the records, columns and format of a download.
type ExportRequest struct {
	Businesses         []entity.BusinessRecord `json:"businesses"`
	Fields             []string                `json:"fields,omitempty"`
	Format             string                  `json:"format"`
	OnlyWithoutWebsite bool                    `json:"onlyWithoutWebsite,omitempty"`
}
