package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leads-extractor/internal/dto"
	"github.com/octobees/leads-extractor/internal/scrape"
)

const maxScrapeURLs = 200

// Scraper runs custom scrapes over user supplied websites.
type Scraper interface {
	Scrape(ctx context.Context, req scrape.Request) (scrape.Result, error)
}

// ScrapeHandler serves custom website scrapes.
type ScrapeHandler struct {
	scraper Scraper
}

// NewScrapeHandler wires a new ScrapeHandler instance.
func NewScrapeHandler(scraper Scraper) *ScrapeHandler {
	return &ScrapeHandler{scraper: scraper}
}

// Custom handles POST /api/scrape/custom.
func (h *ScrapeHandler) Custom(c echo.Context) error {
	var req dto.ScrapeRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if len(req.URLs) == 0 || len(req.URLs) > maxScrapeURLs {
		return Error(c, http.StatusBadRequest, "urls must contain between 1 and 200 entries")
	}

	result, err := h.scraper.Scrape(c.Request().Context(), scrape.Request{
		URLs:         req.URLs,
		BusinessType: strings.TrimSpace(req.BusinessType),
		Location:     strings.TrimSpace(req.Location),
	})
	if err != nil {
		status, msg := upstreamError(err)
		return Error(c, status, msg)
	}

	return Success(c, http.StatusOK, "scrape completed", result)
}
