package scrape

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/octobees/leads-extractor/internal/cache"
	"github.com/octobees/leads-extractor/internal/config"
	"github.com/octobees/leads-extractor/internal/entity"
	"github.com/octobees/leads-extractor/internal/extractor"
	"github.com/octobees/leads-extractor/internal/fetcher"
	"github.com/octobees/leads-extractor/internal/metrics"
	"github.com/octobees/leads-extractor/internal/service"
)

const (
	unknownBusiness = "Unknown Business"
	defaultTimeout  = 5 * time.Minute
)

var (
	// ErrScrapeTimeout is returned when a batch outlives its global deadline.
	ErrScrapeTimeout = eris.New("scrape timed out")

	errNotBusiness = eris.New("not a business website")
	errNoContacts  = eris.New("no contact information found")
)

// Extractor inspects a single website.
type Extractor interface {
	IsBusinessWebsite(ctx context.Context, url string) (extractor.BusinessCheck, error)
	Extract(ctx context.Context, url string) (extractor.ContactExtractionResult, error)
}

// Request is one custom scrape batch.
type Request struct {
	URLs         []string
	BusinessType string
	Location     string
}

// Result holds the records, the per-URL failures and the batch stats.
type Result struct {
	Businesses []entity.BusinessRecord `json:"businesses"`
	Errors     []entity.DetailedError  `json:"errors"`
	Stats      entity.ScrapeStats      `json:"stats"`
}

// Service runs custom scrapes over user supplied websites.
type Service struct {
	extractor Extractor
	cache     cache.Cache
	validator *service.Validator
	cfg       config.ScrapeConfig
	sleep     fetcher.Sleeper
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics counts failures by category.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSleeper replaces the delay between batches.
func WithSleeper(fn fetcher.Sleeper) Option {
	return func(s *Service) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// NewService builds a scrape orchestrator. Zero config values fall back to
// three concurrent sites, fifty URLs and a five minute deadline.
func NewService(ex Extractor, c cache.Cache, v *service.Validator, cfg config.ScrapeConfig, opts ...Option) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.MaxURLs <= 0 {
		cfg.MaxURLs = 50
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	s := &Service{
		extractor: ex,
		cache:     c,
		validator: v,
		cfg:       cfg,
		sleep:     fetcher.SleepContext,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type outcome struct {
	record entity.BusinessRecord
	err    error
}

// Scrape visits every valid URL in req and returns the deduplicated records.
// Per-URL failures are reported in Result.Errors; only the global deadline
// fails the whole call.
func (s *Service) Scrape(ctx context.Context, req Request) (Result, error) {
	key := cache.BatchKey(req.URLs, req.BusinessType, req.Location)
	if cached, ok := cache.GetAs[Result](s.cache, key); ok {
		s.logger.Debug("custom scrape cache hit", zap.Int("urls", len(req.URLs)))
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	errs := make([]entity.DetailedError, 0)
	targets := make([]string, 0, len(req.URLs))
	seen := make(map[string]struct{}, len(req.URLs))
	for _, raw := range req.URLs {
		cleaned, err := CleanURL(raw)
		if err != nil {
			errs = append(errs, s.detailedError(raw, ErrInvalidURL))
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		targets = append(targets, cleaned)
	}

	if len(targets) > s.cfg.MaxURLs {
		s.logger.Info("custom scrape truncated",
			zap.Int("requested", len(targets)),
			zap.Int("processed", s.cfg.MaxURLs),
		)
		targets = targets[:s.cfg.MaxURLs]
	}
	// Duplicates and URLs past the cap are not reported on, so they are not counted.
	total := len(errs) + len(targets)

	outcomes, err := s.run(ctx, targets, req)
	if err != nil {
		return Result{}, err
	}

	records := make([]entity.BusinessRecord, 0, len(outcomes))
	for i, o := range outcomes {
		if o.err != nil {
			errs = append(errs, s.detailedError(targets[i], o.err))
			continue
		}
		records = append(records, o.record)
	}

	result := Result{
		Businesses: service.RemoveDuplicates(records),
		Errors:     errs,
		Stats:      entity.NewScrapeStats(total, len(records), errs),
	}
	s.logger.Info("custom scrape completed",
		zap.Int("total", result.Stats.Total),
		zap.Int("successful", result.Stats.Successful),
		zap.Int("failed", result.Stats.Failed),
	)
	if s.cache != nil {
		s.cache.Set(key, result, cache.BatchTTL)
	}
	return result, nil
}

// run processes targets in batches of cfg.Concurrency, pausing between batches.
func (s *Service) run(ctx context.Context, targets []string, req Request) ([]outcome, error) {
	outcomes := make([]outcome, len(targets))
	for start := 0; start < len(targets); start += s.cfg.Concurrency {
		if start > 0 && s.cfg.BatchDelay > 0 {
			if err := s.sleep(ctx, s.cfg.BatchDelay); err != nil {
				return nil, s.deadlineError(ctx)
			}
		}

		end := min(start+s.cfg.Concurrency, len(targets))
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Concurrency)
		for i := start; i < end; i++ {
			g.Go(func() error {
				rec, err := s.scrapeOne(gCtx, targets[i], req)
				outcomes[i] = outcome{record: rec, err: err}
				return nil
			})
		}
		_ = g.Wait()

		if ctx.Err() != nil {
			return nil, s.deadlineError(ctx)
		}
	}
	return outcomes, nil
}

func (s *Service) scrapeOne(ctx context.Context, target string, req Request) (entity.BusinessRecord, error) {
	check, err := s.extractor.IsBusinessWebsite(ctx, target)
	if err != nil {
		return entity.BusinessRecord{}, err
	}
	if !check.IsBusiness {
		return entity.BusinessRecord{}, errNotBusiness
	}

	contacts, err := s.extractor.Extract(ctx, target)
	if err != nil {
		return entity.BusinessRecord{}, err
	}

	name := strings.TrimSpace(check.BusinessName)
	if contacts.Empty() && name == "" {
		return entity.BusinessRecord{}, errNoContacts
	}
	if name == "" {
		name = unknownBusiness
	}

	category := strings.TrimSpace(req.BusinessType)
	if category == "" {
		category = check.BusinessType
	}

	return s.validator.ValidateBusinessResult(entity.BusinessRecord{
		Name:     name,
		Phone:    first(contacts.Phones),
		Email:    first(contacts.Emails),
		Website:  target,
		Address:  req.Location,
		Category: category,
	}), nil
}

func (s *Service) detailedError(target string, err error) entity.DetailedError {
	category := Classify(err)
	s.metrics.IncScrapeError(string(category))
	s.logger.Debug("custom scrape url failed",
		zap.String("url", target),
		zap.String("category", string(category)),
		zap.Error(err),
	)
	return entity.DetailedError{URL: target, Error: errorMessage(err), Category: category}
}

func (s *Service) deadlineError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return eris.Wrapf(ErrScrapeTimeout, "deadline of %s exceeded", s.cfg.Timeout)
	}
	return eris.Wrap(ctx.Err(), "custom scrape cancelled")
}

// errorMessage reports sentinel failures by their bare message.
func errorMessage(err error) string {
	for _, sentinel := range []error{ErrInvalidURL, errNotBusiness, errNoContacts} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
