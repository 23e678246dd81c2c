package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/octobees/leads-extractor/internal/config"
	"github.com/octobees/leads-extractor/internal/metrics"
)

const (
	maxBodyBytes   = 5 << 20
	maxRedirects   = 5
	hostCacheSize  = 256
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// Options tune a single Fetch call. Zero values fall back to the fetcher defaults.
type Options struct {
	MaxAttempts int
	Timeout     time.Duration
	// NoRetry lists error kinds returned at once even when they are retryable.
	NoRetry []Kind
}

// Response is a fetched page decoded to UTF-8.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Fetcher issues GET requests with retries, backoff and per-host politeness.
type Fetcher struct {
	client     *http.Client
	noRedirect *http.Client
	cfg        config.FetchConfig
	limiters   *lru.Cache[string, *rate.Limiter]
	uaIndex    atomic.Uint64
	sleep      Sleeper
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTransport swaps the HTTP transport, e.g. for httpmock in tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		if rt != nil {
			f.client.Transport = rt
			f.noRedirect.Transport = rt
		}
	}
}

// WithSleeper overrides the backoff sleep.
func WithSleeper(s Sleeper) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.sleep = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics records fetch outcomes and retries.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// New builds a Fetcher from cfg.
func New(cfg config.FetchConfig, opts ...Option) (*Fetcher, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	f := &Fetcher{
		client: &http.Client{},
		noRedirect: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cfg:    cfg,
		sleep:  SleepContext,
		logger: zap.NewNop(),
	}

	if cfg.HostRateLimit.Requests > 0 && cfg.HostRateLimit.Interval > 0 {
		limiters, err := lru.New[string, *rate.Limiter](hostCacheSize)
		if err != nil {
			return nil, eris.Wrap(err, "create host limiter cache")
		}
		f.limiters = limiters
	}

	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch GETs rawURL, following redirects transparently, and retries transient
// failures with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	return f.fetchWithRetry(ctx, f.client, rawURL, opts)
}

// FetchWithRedirects follows up to five redirect hops manually, resolving each
// Location against the current URL. Every hop uses the same retry policy.
func (f *Fetcher) FetchWithRedirects(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	current := rawURL
	for hop := 0; hop <= maxRedirects; hop++ {
		resp, err := f.fetchWithRetry(ctx, f.noRedirect, current, opts)
		if err != nil {
			return nil, err
		}
		if !isRedirect(resp.StatusCode) {
			return resp, nil
		}

		location := resp.Header.Get("Location")
		if location == "" {
			return nil, &Error{Kind: KindHTTP, URL: current, StatusCode: resp.StatusCode, Err: eris.New("redirect without Location header")}
		}
		base, err := url.Parse(current)
		if err != nil {
			return nil, &Error{Kind: KindHTTP, URL: current, Err: eris.Wrap(err, "parse current url")}
		}
		next, err := base.Parse(location)
		if err != nil {
			return nil, &Error{Kind: KindHTTP, URL: current, StatusCode: resp.StatusCode, Err: eris.Wrapf(err, "parse redirect location %q", location)}
		}
		f.logger.Debug("following redirect", zap.String("from", current), zap.String("to", next.String()))
		current = next.String()
	}
	return nil, &Error{Kind: KindHTTP, URL: rawURL, Err: eris.Errorf("stopped after %d redirects", maxRedirects)}
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, client *http.Client, rawURL string, opts Options) (*Response, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = f.cfg.MaxAttempts
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.cfg.Timeout
	}

	for attempt := 1; ; attempt++ {
		resp, err := f.attempt(ctx, client, rawURL, timeout)
		if err == nil {
			f.metrics.IncFetch("success")
			return resp, nil
		}

		var fe *Error
		if !errors.As(err, &fe) {
			return nil, err
		}
		f.metrics.IncFetch(string(fe.Kind))
		if !fe.Retryable() || slices.Contains(opts.NoRetry, fe.Kind) || attempt >= maxAttempts {
			return nil, err
		}

		delay := f.backoff(attempt)
		f.metrics.IncRetries()
		f.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if serr := f.sleep(ctx, delay); serr != nil {
			return nil, &Error{Kind: KindTimeout, URL: rawURL, Err: serr}
		}
	}
}

func (f *Fetcher) attempt(ctx context.Context, client *http.Client, rawURL string, timeout time.Duration) (*Response, error) {
	if err := f.wait(ctx, rawURL); err != nil {
		return nil, &Error{Kind: KindTimeout, URL: rawURL, Err: err}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindHTTP, URL: rawURL, Err: eris.Wrap(err, "build request")}
	}
	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := client.Do(req)
	f.metrics.ObserveFetch(time.Since(start))
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	switch {
	case status == http.StatusForbidden || status == http.StatusTooManyRequests:
		return nil, &Error{Kind: KindAccessDenied, URL: rawURL, StatusCode: status}
	case status == http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, URL: rawURL, StatusCode: status}
	case status >= 500:
		return nil, &Error{Kind: KindServer, URL: rawURL, StatusCode: status}
	case isRedirect(status):
		return &Response{URL: rawURL, StatusCode: status, Header: resp.Header.Clone()}, nil
	case status < 200 || status > 299:
		return nil, &Error{Kind: KindHTTP, URL: rawURL, StatusCode: status}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Response{
		URL:        finalURL,
		StatusCode: status,
		Header:     resp.Header.Clone(),
		Body:       toUTF8(raw, resp.Header.Get("Content-Type")),
	}, nil
}

func (f *Fetcher) wait(ctx context.Context, rawURL string) error {
	if f.limiters == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	host := u.Hostname()

	every := f.cfg.HostRateLimit.Interval / time.Duration(f.cfg.HostRateLimit.Requests)
	limiter := rate.NewLimiter(rate.Every(every), f.cfg.HostRateLimit.Requests)
	if prev, ok, _ := f.limiters.PeekOrAdd(host, limiter); ok {
		limiter = prev
	}
	return limiter.Wait(ctx)
}

func (f *Fetcher) nextUserAgent() string {
	idx := f.uaIndex.Add(1) - 1
	return userAgents[idx%uint64(len(userAgents))]
}

// backoff returns min(base*2^(attempt-1), max).
func (f *Fetcher) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	base := f.cfg.BackoffBase
	if base <= 0 {
		return 0
	}
	delay := base * time.Duration(1<<(attempt-1))
	if max := f.cfg.BackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func classifyTransportError(rawURL string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, URL: rawURL, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, URL: rawURL, Err: err}
	}
	return &Error{Kind: KindNetwork, URL: rawURL, Err: err}
}

func toUTF8(raw []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return raw
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return raw
	}
	return decoded
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// SleepContext waits for d unless ctx finishes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
