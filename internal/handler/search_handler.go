package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leads-extractor/internal/dto"
	"github.com/octobees/leads-extractor/internal/entity"
	"github.com/octobees/leads-extractor/internal/search"
)

// Searcher runs search-engine listing queries.
type Searcher interface {
	Search(ctx context.Context, query string, page int) (entity.SearchResponse, error)
}

// SearchHandler serves business listing searches.
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler wires a new SearchHandler instance.
func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(c echo.Context) error {
	var req dto.SearchRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	result, err := h.searcher.Search(c.Request().Context(), req.Query, req.Page)
	if err != nil {
		if errors.Is(err, search.ErrInvalidQuery) {
			return Error(c, http.StatusBadRequest, "query must be between 1 and 200 characters")
		}
		status, msg := upstreamError(err)
		return Error(c, status, msg)
	}

	return Success(c, http.StatusOK, "search completed", result)
}
