package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leads-extractor/internal/dto"
	"github.com/octobees/leads-extractor/internal/export"
)

// ExportHandler renders records as downloadable files.
type ExportHandler struct{}

// NewExportHandler wires a new ExportHandler instance.
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// Export handles POST /api/export.
func (h *ExportHandler) Export(c echo.Context) error {
	var req dto.ExportRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	body, contentType, err := export.Export(req.Businesses, export.Options{
		Fields:             req.Fields,
		Format:             req.Format,
		OnlyWithoutWebsite: req.OnlyWithoutWebsite,
	})
	if err != nil {
		switch {
		case errors.Is(err, export.ErrUnknownFormat):
			return Error(c, http.StatusBadRequest, "format must be one of csv, json, txt")
		case errors.Is(err, export.ErrUnknownField):
			return Error(c, http.StatusBadRequest, "unknown field requested")
		default:
			return Error(c, http.StatusInternalServerError, "failed to render export")
		}
	}

	_, ext, _ := export.ContentType(req.Format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="businesses.%s"`, ext))
	return c.Blob(http.StatusOK, contentType, body)
}
