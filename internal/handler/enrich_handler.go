package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leads-extractor/internal/dto"
	"github.com/octobees/leads-extractor/internal/entity"
)

const maxEnrichRecords = 200

// Enricher fills in missing contact fields of existing records.
type Enricher interface {
	EnrichEmails(ctx context.Context, records []entity.BusinessRecord) ([]entity.BusinessRecord, entity.EnrichStats, error)
	EnrichPhones(ctx context.Context, records []entity.BusinessRecord) ([]entity.BusinessRecord, entity.EnrichStats, error)
}

type enrichFunc func(ctx context.Context, records []entity.BusinessRecord) ([]entity.BusinessRecord, entity.EnrichStats, error)

// EnrichHandler serves email and phone enrichment.
type EnrichHandler struct {
	enricher Enricher
}

// NewEnrichHandler wires a new EnrichHandler instance.
func NewEnrichHandler(enricher Enricher) *EnrichHandler {
	return &EnrichHandler{enricher: enricher}
}

// Emails handles POST /api/enrich/emails.
func (h *EnrichHandler) Emails(c echo.Context) error {
	return h.handle(c, h.enricher.EnrichEmails, "emails enriched")
}

// Phones handles POST /api/enrich/phones.
func (h *EnrichHandler) Phones(c echo.Context) error {
	return h.handle(c, h.enricher.EnrichPhones, "phones enriched")
}

func (h *EnrichHandler) handle(c echo.Context, enrich enrichFunc, message string) error {
	var req dto.EnrichRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if len(req.Businesses) == 0 || len(req.Businesses) > maxEnrichRecords {
		return Error(c, http.StatusBadRequest, "businesses must contain between 1 and 200 entries")
	}

	records, stats, err := enrich(c.Request().Context(), req.Businesses)
	if err != nil {
		status, msg := upstreamError(err)
		return Error(c, status, msg)
	}

	return Success(c, http.StatusOK, message, dto.EnrichResponse{Businesses: records, Stats: stats})
}
