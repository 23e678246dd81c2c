package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/octobees/leads-extractor/internal/ai"
	"github.com/octobees/leads-extractor/internal/auth"
	"github.com/octobees/leads-extractor/internal/cache"
	"github.com/octobees/leads-extractor/internal/config"
	"github.com/octobees/leads-extractor/internal/extractor"
	"github.com/octobees/leads-extractor/internal/fetcher"
	"github.com/octobees/leads-extractor/internal/handler"
	"github.com/octobees/leads-extractor/internal/metrics"
	middlewarepkg "github.com/octobees/leads-extractor/internal/middleware"
	"github.com/octobees/leads-extractor/internal/router"
	"github.com/octobees/leads-extractor/internal/scrape"
	"github.com/octobees/leads-extractor/internal/search"
	"github.com/octobees/leads-extractor/internal/service"
	"github.com/octobees/leads-extractor/internal/service/scoring"
)

const cacheSweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	store := cache.NewMemory(cache.WithMaxEntries(cfg.CacheMaxEntries), cache.WithMetrics(m))
	go sweepCache(ctx, store, logger)

	pageFetcher, err := fetcher.New(cfg.Fetch, fetcher.WithLogger(logger), fetcher.WithMetrics(m))
	if err != nil {
		logger.Fatal("failed to build fetcher", zap.Error(err))
	}

	var aiClient ai.Client = ai.Disabled{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Fatal("failed to build gemini client", zap.Error(err))
		}
		aiClient = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, AI extraction disabled")
	}

	validator := service.NewValidator(cfg.Denylists)
	scorer := scoring.NewScorer(cfg.Denylists.NonBusinessHosts)
	hybrid := extractor.NewHybrid(pageFetcher, store, aiClient, validator, scorer,
		extractor.WithLogger(logger),
		extractor.WithMetrics(m),
	)

	searchService := search.NewService(pageFetcher, store, validator, cfg.SearchBaseURL, search.WithLogger(logger))
	scrapeService := scrape.NewService(hybrid, store, validator, cfg.Scrape,
		scrape.WithLogger(logger),
		scrape.WithMetrics(m),
	)
	enricher := service.NewEnricher(hybrid, validator,
		service.WithEnrichLogger(logger),
		service.WithEnrichConcurrency(cfg.Scrape.Concurrency),
	)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if !jwtManager.Enabled() {
		logger.Warn("API_JWT_SECRET not set, /api routes are unauthenticated")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, m, router.Handlers{
		Search: handler.NewSearchHandler(searchService),
		Scrape: handler.NewScrapeHandler(scrapeService),
		Enrich: handler.NewEnrichHandler(enricher),
		Export: handler.NewExportHandler(),
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zcfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

func sweepCache(ctx context.Context, store cache.Cache, logger *zap.Logger) {
	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Cleanup(); n > 0 {
				logger.Debug("cache sweep", zap.Int("evicted", n))
			}
		}
	}
}
