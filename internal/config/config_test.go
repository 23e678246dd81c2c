package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("API_JWT_SECRET", "super-secret")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("SEARCH_BASE_URL", "https://search.test/")
	t.Setenv("RATE_LIMIT_SCRAPE", "10/min")
	t.Setenv("HOST_RATE_LIMIT", "4/s")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("SCRAPE_TIMEOUT", "1m")
	t.Setenv("CACHE_MAX_ENTRIES", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" || cfg.JWTSecret != "super-secret" || cfg.GeminiAPIKey != "key" {
		t.Fatalf("unexpected config values: %+v", cfg)
	}
	if cfg.SearchBaseURL != "https://search.test" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.SearchBaseURL)
	}
	if cfg.RateLimitScrape.Requests != 10 || cfg.RateLimitScrape.Interval != time.Minute {
		t.Fatalf("unexpected rate limit config: %+v", cfg.RateLimitScrape)
	}
	if cfg.Fetch.HostRateLimit.Requests != 4 || cfg.Fetch.HostRateLimit.Interval != time.Second {
		t.Fatalf("unexpected host rate limit: %+v", cfg.Fetch.HostRateLimit)
	}
	if cfg.Fetch.Timeout != 5*time.Second || cfg.Scrape.Timeout != time.Minute {
		t.Fatalf("unexpected timeouts: %+v %+v", cfg.Fetch, cfg.Scrape)
	}
	if cfg.CacheMaxEntries != 50 {
		t.Fatalf("expected cache max 50, got %d", cfg.CacheMaxEntries)
	}
	if cfg.Scrape.Concurrency != 3 || cfg.Scrape.MaxURLs != 50 || cfg.Scrape.BatchDelay != 2*time.Second {
		t.Fatalf("unexpected scrape defaults: %+v", cfg.Scrape)
	}

	// invalid rate limit should error
	t.Setenv("RATE_LIMIT_SCRAPE", "xyz")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid rate limit")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:            "8080",
			SearchBaseURL:   "https://www.google.com",
			CacheMaxEntries: 10,
			Fetch:           FetchConfig{Timeout: time.Second, MaxAttempts: 3, BackoffBase: time.Second, BackoffMax: 2 * time.Second},
			Scrape:          ScrapeConfig{Concurrency: 3, MaxURLs: 50, BatchDelay: time.Second, Timeout: time.Minute},
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(c *Config){
		"relative search url": func(c *Config) { c.SearchBaseURL = "google.com" },
		"zero attempts":       func(c *Config) { c.Fetch.MaxAttempts = 0 },
		"backoff above max":   func(c *Config) { c.Fetch.BackoffBase = time.Minute },
		"zero concurrency":    func(c *Config) { c.Scrape.Concurrency = 0 },
		"zero scrape timeout": func(c *Config) { c.Scrape.Timeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestParseRateLimit(t *testing.T) {
	cfg, err := parseRateLimit("5/sec")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Requests != 5 || cfg.Interval != time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := parseRateLimit("bad-format"); err == nil {
		t.Fatalf("expected error for malformed value")
	}
	if _, err := parseRateLimit("0/min"); err == nil {
		t.Fatalf("expected error for zero requests")
	}
	if _, err := parseRateLimit("5/day"); err == nil {
		t.Fatalf("expected error for unsupported unit")
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("FOO")
	if val := getEnv("FOO", "fallback"); val != "fallback" {
		t.Fatalf("expected fallback, got %s", val)
	}
	t.Setenv("FOO", "value")
	if val := getEnv("FOO", "fallback"); val != "value" {
		t.Fatalf("expected env value, got %s", val)
	}
}

func TestParseDuration(t *testing.T) {
	if parseDuration("3h", time.Second) != 3*time.Hour {
		t.Fatalf("expected 3h duration")
	}
	if parseDuration("invalid", 24*time.Hour) != 24*time.Hour {
		t.Fatalf("expected fallback duration")
	}
}

func TestLoadDenylists(t *testing.T) {
	lists, err := LoadDenylists("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lists.NonBusinessHosts) == 0 || len(lists.DisposableEmailDomains) == 0 {
		t.Fatalf("expected built-in tables")
	}

	path := filepath.Join(t.TempDir(), "denylist.yaml")
	content := "disposable_email_domains:\n  - Burner.Example\n  - mailinator.com\nnon_business_hosts:\n  - directory.test\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	lists, err = LoadDenylists(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !contains(lists.DisposableEmailDomains, "burner.example") {
		t.Fatalf("expected lower-cased extra domain, got %v", lists.DisposableEmailDomains)
	}
	count := 0
	for _, d := range lists.DisposableEmailDomains {
		if d == "mailinator.com" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected duplicate domain merged once, got %d", count)
	}
	if !contains(lists.NonBusinessHosts, "directory.test") {
		t.Fatalf("expected extra host")
	}

	if _, err := LoadDenylists(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
