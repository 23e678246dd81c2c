package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leads-extractor/internal/auth"
	"github.com/octobees/leads-extractor/internal/config"
	"github.com/octobees/leads-extractor/internal/handler"
	"github.com/octobees/leads-extractor/internal/metrics"
)

func newTestServer(secret string) *echo.Echo {
	e := echo.New()
	cfg := &config.Config{RateLimitScrape: config.RateLimitConfig{Requests: 100, Interval: time.Minute}}
	Register(e, cfg, auth.NewJWTManager(secret, time.Hour), metrics.New(), Handlers{
		Export: handler.NewExportHandler(),
	})
	return e
}

func TestRegisterRoutes(t *testing.T) {
	e := newTestServer("")

	routes := map[string]bool{}
	for _, r := range e.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{"GET /healthz", "GET /metrics", "POST /api/export"} {
		if !routes[want] {
			t.Fatalf("expected route %s to be registered", want)
		}
	}
	if routes["POST /api/search"] {
		t.Fatalf("nil handlers must not be routed")
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rec.Code)
	}
}

func TestAPIRequiresTokenWhenSecretSet(t *testing.T) {
	e := newTestServer("secret")
	body := `{"businesses":[{"name":"Acme"}],"format":"txt"}`

	req := httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, err := auth.NewJWTManager("secret", time.Hour).GenerateToken("client-1", "")
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if rec.Body.String() != "Business 1\nName: Acme\nPhone: \nEmail: \nWebsite: \nAddress: \nCategory: \n" {
		t.Fatalf("unexpected export body %q", rec.Body.String())
	}
}
