package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/octobees/leads-extractor/internal/config"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mw := Logging(zap.New(core))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-123")

	err := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "rid-123" || fields["path"] != "/healthz" || fields["status"] != int64(http.StatusOK) {
		t.Fatalf("unexpected log fields %v", fields)
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("expected info level, got %s", entries[0].Level)
	}

	// errors are propagated and logged at error level
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-456")
	expected := errors.New("boom")
	err = mw(func(c echo.Context) error {
		return expected
	})(c)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error to bubble up")
	}
	errEntries := logs.FilterField(zap.String("request_id", "rid-456")).All()
	if len(errEntries) != 1 || errEntries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected an error-level entry for rid-456, got %+v", errEntries)
	}
}

func TestLoggingMiddlewareNilLogger(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if err := Logging(nil)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRateLimiter(t *testing.T) {
	cfg := config.RateLimitConfig{Requests: 1, Interval: 2 * time.Second}
	mw := RateLimiter(cfg)

	e := echo.New()
	nextCalls := 0
	next := func(c echo.Context) error {
		nextCalls++
		return c.NoContent(http.StatusOK)
	}

	rec := httptest.NewRecorder()
	_ = mw(next)(e.NewContext(httptest.NewRequest(http.MethodPost, "/api/scrape/custom", nil), rec))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	_ = mw(next)(e.NewContext(httptest.NewRequest(http.MethodPost, "/api/search", nil), rec2))
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request rejected, got %d", rec2.Code)
	}
	if rec2.Header().Get("Retry-After") != "2" {
		t.Fatalf("expected Retry-After of 2 seconds, got %q", rec2.Header().Get("Retry-After"))
	}
	if !strings.Contains(rec2.Body.String(), `"status":"error"`) {
		t.Fatalf("expected error envelope, got %s", rec2.Body.String())
	}

	// zero config should behave as passthrough
	mw = RateLimiter(config.RateLimitConfig{})
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		_ = mw(next)(e.NewContext(httptest.NewRequest(http.MethodPost, "/api/search", nil), rec))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected passthrough when limiter disabled")
		}
	}
	if nextCalls != 4 {
		t.Fatalf("expected next handler to be invoked 4 times, got %d", nextCalls)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	handler := RequestID()

	t.Run("reuse incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "incoming")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(func(c echo.Context) error {
			if RequestIDFromContext(c) != "incoming" {
				t.Fatalf("expected request id to be stored")
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rec.Header().Get("X-Request-ID") != "incoming" {
			t.Fatalf("expected response header to propagate request id")
		}
	})

	t.Run("generate when missing or oversized", func(t *testing.T) {
		for _, incoming := range []string{"", strings.Repeat("x", maxRequestIDLength+1)} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if incoming != "" {
				req.Header.Set("X-Request-ID", incoming)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := handler(func(c echo.Context) error {
				rid := RequestIDFromContext(c)
				if rid == "" || rid == incoming {
					t.Fatalf("expected generated request id, got %q", rid)
				}
				return c.NoContent(http.StatusOK)
			})(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if rec.Header().Get("X-Request-ID") == "" {
				t.Fatalf("expected response header set")
			}
		}
	})
}
