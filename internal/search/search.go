package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/octobees/leads-extractor/internal/cache"
	"github.com/octobees/leads-extractor/internal/entity"
	"github.com/octobees/leads-extractor/internal/fetcher"
	"github.com/octobees/leads-extractor/internal/service"
)

const (
	maxQueryLength = 200
	resultsPerPage = 10
	maxAttempts    = 3
)

// ErrInvalidQuery is returned for empty or oversized queries.
var ErrInvalidQuery = eris.New("invalid search query")

// rateLimitDelays are slept after the n-th throttled attempt.
var rateLimitDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

// PageFetcher retrieves a page following redirects hop by hop.
type PageFetcher interface {
	FetchWithRedirects(ctx context.Context, url string, opts fetcher.Options) (*fetcher.Response, error)
}

// Service turns a free-text query into one page of validated business listings.
type Service struct {
	fetcher   PageFetcher
	cache     cache.Cache
	validator *service.Validator
	baseURL   string
	sleep     fetcher.Sleeper
	logger    *zap.Logger
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

// WithSleeper replaces the throttling delay, mainly for tests.
func WithSleeper(fn fetcher.Sleeper) Option {
	return func(s *Service) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// NewService builds a search service querying baseURL.
func NewService(f PageFetcher, c cache.Cache, v *service.Validator, baseURL string, opts ...Option) *Service {
	s := &Service{
		fetcher:   f,
		cache:     c,
		validator: v,
		baseURL:   strings.TrimRight(baseURL, "/"),
		sleep:     fetcher.SleepContext,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the listings on the given result page. Pages below 1 are
// treated as the first page.
func (s *Service) Search(ctx context.Context, query string, page int) (entity.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return entity.SearchResponse{}, eris.Wrap(ErrInvalidQuery, "query is required")
	}
	if len([]rune(query)) > maxQueryLength {
		return entity.SearchResponse{}, eris.Wrapf(ErrInvalidQuery, "query exceeds %d characters", maxQueryLength)
	}
	if page < 1 {
		page = 1
	}

	key := cache.SearchKey(query, page)
	if cached, ok := cache.GetAs[entity.SearchResponse](s.cache, key); ok {
		s.logger.Debug("search cache hit", zap.String("query", query), zap.Int("page", page))
		return cached, nil
	}

	resp, err := s.fetchResults(ctx, s.resultsURL(query, page))
	if err != nil {
		return entity.SearchResponse{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body)))
	if err != nil {
		return entity.SearchResponse{}, eris.Wrap(err, "parse search results")
	}

	records := make([]entity.BusinessRecord, 0, resultsPerPage)
	for _, raw := range parseListings(doc, resp.URL) {
		rec := s.validator.ValidateBusinessResult(raw)
		if rec.Name == "" {
			continue
		}
		records = append(records, rec)
	}

	result := entity.SearchResponse{
		Businesses: service.RemoveDuplicates(records),
		Pagination: parsePagination(doc, page),
	}
	s.logger.Info("search completed",
		zap.String("query", query),
		zap.Int("page", page),
		zap.Int("businesses", len(result.Businesses)),
	)
	if s.cache != nil {
		s.cache.Set(key, result, cache.SearchTTL)
	}
	return result, nil
}

func (s *Service) resultsURL(query string, page int) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("tbm", "lcl")
	params.Set("start", strconv.Itoa((page-1)*resultsPerPage))
	params.Set("hl", "en")
	return s.baseURL + "/search?" + params.Encode()
}

// fetchResults backs off on HTTP 429 and surfaces any other failure once the
// fetcher's own retries are spent.
func (s *Service) fetchResults(ctx context.Context, target string) (*fetcher.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := s.fetcher.FetchWithRedirects(ctx, target, fetcher.Options{NoRetry: []fetcher.Kind{fetcher.KindAccessDenied}})
		if err == nil {
			return resp, nil
		}
		if !isThrottled(err) {
			return nil, err
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		delay := rateLimitDelays[attempt-1]
		s.logger.Warn("search throttled, backing off", zap.Int("attempt", attempt), zap.Duration("delay", delay))
		if serr := s.sleep(ctx, delay); serr != nil {
			return nil, &fetcher.Error{Kind: fetcher.KindTimeout, URL: target, Err: serr}
		}
	}
	return nil, lastErr
}

func isThrottled(err error) bool {
	var fe *fetcher.Error
	return errors.As(err, &fe) && fe.Kind == fetcher.KindAccessDenied && fe.StatusCode == http.StatusTooManyRequests
}
