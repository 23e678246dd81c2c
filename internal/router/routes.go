package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/octobees/leads-extractor/internal/auth"
	"github.com/octobees/leads-extractor/internal/config"
	"github.com/octobees/leads-extractor/internal/handler"
	"github.com/octobees/leads-extractor/internal/metrics"
	middlewarepkg "github.com/octobees/leads-extractor/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Search *handler.SearchHandler
	Scrape *handler.ScrapeHandler
	Enrich *handler.EnrichHandler
	Export *handler.ExportHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, m *metrics.Metrics, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")
	api.Use(middlewarepkg.JWT(jwtManager))

	// Outbound-heavy routes share one bucket.
	limiter := middlewarepkg.RateLimiter(cfg.RateLimitScrape)

	if handlers.Search != nil {
		api.POST("/search", handlers.Search.Search, limiter)
	}
	if handlers.Scrape != nil {
		api.POST("/scrape/custom", handlers.Scrape.Custom, limiter)
	}
	if handlers.Enrich != nil {
		api.POST("/enrich/emails", handlers.Enrich.Emails, limiter)
		api.POST("/enrich/phones", handlers.Enrich.Phones, limiter)
	}
	if handlers.Export != nil {
		api.POST("/export", handlers.Export.Export)
	}
}
