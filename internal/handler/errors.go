package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/octobees/leads-extractor/internal/fetcher"
	"github.com/octobees/leads-extractor/internal/scrape"
)

// upstreamError maps orchestration failures to a status and a client-safe message.
func upstreamError(err error) (int, string) {
	switch {
	case errors.Is(err, scrape.ErrScrapeTimeout),
		errors.Is(err, context.DeadlineExceeded),
		fetcher.KindOf(err) == fetcher.KindTimeout:
		return http.StatusGatewayTimeout, "request timed out"
	case fetcher.KindOf(err) == fetcher.KindAccessDenied:
		return http.StatusBadGateway, "search provider refused the request"
	case fetcher.KindOf(err) != "":
		return http.StatusBadGateway, "upstream fetch failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
