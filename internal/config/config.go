package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// FetchConfig tunes outbound HTTP behaviour.
type FetchConfig struct {
	Timeout       time.Duration
	MaxAttempts   int
	BackoffBase   time.Duration
	BackoffMax    time.Duration
	HostRateLimit RateLimitConfig
}

// ScrapeConfig tunes the custom scrape orchestrator.
type ScrapeConfig struct {
	Concurrency int
	BatchDelay  time.Duration
	MaxURLs     int
	Timeout     time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port            string
	LogLevel        string
	JWTSecret       string
	TokenTTL        time.Duration
	GeminiAPIKey    string
	GeminiModel     string
	SearchBaseURL   string
	CacheMaxEntries int
	RateLimitScrape RateLimitConfig
	Fetch           FetchConfig
	Scrape          ScrapeConfig
	Denylists       Denylists
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		JWTSecret:       os.Getenv("API_JWT_SECRET"),
		TokenTTL:        parseDuration(getEnv("TOKEN_TTL", "24h"), 24*time.Hour),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		SearchBaseURL:   strings.TrimRight(getEnv("SEARCH_BASE_URL", "https://www.google.com"), "/"),
		CacheMaxEntries: parseInt(getEnv("CACHE_MAX_ENTRIES", "1000"), 1000),
		Fetch: FetchConfig{
			Timeout:     parseDuration(getEnv("FETCH_TIMEOUT", "15s"), 15*time.Second),
			MaxAttempts: parseInt(getEnv("FETCH_MAX_ATTEMPTS", "3"), 3),
			BackoffBase: parseDuration(getEnv("FETCH_BACKOFF_BASE", "1s"), time.Second),
			BackoffMax:  parseDuration(getEnv("FETCH_BACKOFF_MAX", "10s"), 10*time.Second),
		},
		Scrape: ScrapeConfig{
			Concurrency: parseInt(getEnv("SCRAPE_CONCURRENCY", "3"), 3),
			BatchDelay:  parseDuration(getEnv("SCRAPE_BATCH_DELAY", "2s"), 2*time.Second),
			MaxURLs:     parseInt(getEnv("SCRAPE_MAX_URLS", "50"), 50),
			Timeout:     parseDuration(getEnv("SCRAPE_TIMEOUT", "5m"), 5*time.Minute),
		},
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_SCRAPE", "10/min"))
	if err != nil {
		return nil, eris.Wrap(err, "invalid RATE_LIMIT_SCRAPE value")
	}
	cfg.RateLimitScrape = rl

	hostRL, err := parseRateLimit(getEnv("HOST_RATE_LIMIT", "2/s"))
	if err != nil {
		return nil, eris.Wrap(err, "invalid HOST_RATE_LIMIT value")
	}
	cfg.Fetch.HostRateLimit = hostRL

	denylists, err := LoadDenylists(os.Getenv("DENYLIST_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.Denylists = denylists

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Port == "" {
		return eris.New("port cannot be empty")
	}
	if !strings.HasPrefix(c.SearchBaseURL, "http://") && !strings.HasPrefix(c.SearchBaseURL, "https://") {
		return eris.Errorf("search base url must be absolute, got %q", c.SearchBaseURL)
	}
	if c.CacheMaxEntries <= 0 {
		return eris.New("cache max entries must be positive")
	}
	if c.Fetch.Timeout <= 0 {
		return eris.New("fetch timeout must be positive")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return eris.New("fetch max attempts must be positive")
	}
	if c.Fetch.BackoffBase < 0 || c.Fetch.BackoffMax < 0 {
		return eris.New("fetch backoff cannot be negative")
	}
	if c.Fetch.BackoffMax > 0 && c.Fetch.BackoffBase > c.Fetch.BackoffMax {
		return eris.Errorf("fetch backoff (%s) cannot exceed fetch backoff max (%s)", c.Fetch.BackoffBase, c.Fetch.BackoffMax)
	}
	if c.Scrape.Concurrency <= 0 {
		return eris.New("scrape concurrency must be positive")
	}
	if c.Scrape.MaxURLs <= 0 {
		return eris.New("scrape max urls must be positive")
	}
	if c.Scrape.BatchDelay < 0 {
		return eris.New("scrape batch delay cannot be negative")
	}
	if c.Scrape.Timeout <= 0 {
		return eris.New("scrape timeout must be positive")
	}
	return nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(input string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return fallback
	}
	return v
}
