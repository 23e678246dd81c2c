package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"

	"github.com/octobees/leads-extractor/internal/entity"
	"github.com/octobees/leads-extractor/internal/fetcher"
	"github.com/octobees/leads-extractor/internal/scrape"
	"github.com/octobees/leads-extractor/internal/search"
)

type searcherStub struct {
	query string
	page  int
	resp  entity.SearchResponse
	err   error
}

func (s *searcherStub) Search(_ context.Context, query string, page int) (entity.SearchResponse, error) {
	s.query, s.page = query, page
	return s.resp, s.err
}

type scraperStub struct {
	req    scrape.Request
	result scrape.Result
	err    error
}

func (s *scraperStub) Scrape(_ context.Context, req scrape.Request) (scrape.Result, error) {
	s.req = req
	return s.result, s.err
}

type enricherStub struct {
	field string
	err   error
}

func (s *enricherStub) EnrichEmails(_ context.Context, records []entity.BusinessRecord) ([]entity.BusinessRecord, entity.EnrichStats, error) {
	s.field = "email"
	out := append([]entity.BusinessRecord{}, records...)
	out[0].Email = "info@acme.com"
	return out, entity.EnrichStats{Processed: 1, Enriched: 1}, s.err
}

func (s *enricherStub) EnrichPhones(_ context.Context, records []entity.BusinessRecord) ([]entity.BusinessRecord, entity.EnrichStats, error) {
	s.field = "phone"
	return records, entity.EnrichStats{Processed: 1}, s.err
}

func newJSONContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) APIResponse {
	t.Helper()
	var payload struct {
		APIResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if data != nil && len(payload.Data) > 0 {
		if err := json.Unmarshal(payload.Data, data); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
	return payload.APIResponse
}

func TestSearchHandler(t *testing.T) {
	stub := &searcherStub{resp: entity.SearchResponse{
		Businesses: []entity.BusinessRecord{{Name: "Joe's Pizza"}},
		Pagination: entity.Pagination{CurrentPage: 2, TotalPages: 3},
	}}
	h := NewSearchHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/search", `{"query":"pizza","page":2}`)
	if err := h.Search(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || stub.query != "pizza" || stub.page != 2 {
		t.Fatalf("unexpected call: code=%d query=%q page=%d", rec.Code, stub.query, stub.page)
	}
	var data entity.SearchResponse
	if env := decodeEnvelope(t, rec, &data); env.Status != "success" || len(data.Businesses) != 1 || data.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected response %+v %+v", env, data)
	}
}

func TestSearchHandlerErrors(t *testing.T) {
	cases := map[string]struct {
		body string
		err  error
		want int
	}{
		"invalid payload": {body: "{", want: http.StatusBadRequest},
		"invalid query":   {body: `{"query":""}`, err: eris.Wrap(search.ErrInvalidQuery, "query is required"), want: http.StatusBadRequest},
		"throttled":       {body: `{"query":"x"}`, err: &fetcher.Error{Kind: fetcher.KindAccessDenied, StatusCode: 429}, want: http.StatusBadGateway},
		"timeout":         {body: `{"query":"x"}`, err: &fetcher.Error{Kind: fetcher.KindTimeout, Err: context.DeadlineExceeded}, want: http.StatusGatewayTimeout},
		"internal":        {body: `{"query":"x"}`, err: errors.New("parse failure"), want: http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewSearchHandler(&searcherStub{err: tc.err})
			c, rec := newJSONContext(http.MethodPost, "/api/search", tc.body)
			if err := h.Search(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if env := decodeEnvelope(t, rec, nil); env.Status != "error" || env.Message == "" {
				t.Fatalf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestScrapeHandler(t *testing.T) {
	stub := &scraperStub{result: scrape.Result{
		Businesses: []entity.BusinessRecord{{Name: "Sunrise Bakery"}},
		Errors:     []entity.DetailedError{{URL: "not a url", Error: "invalid URL format", Category: entity.CategoryValidation}},
		Stats:      entity.NewScrapeStats(2, 1, []entity.DetailedError{{Category: entity.CategoryValidation}}),
	}}
	h := NewScrapeHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/scrape/custom", `{"urls":["example.com","not a url"],"businessType":" Bakery ","location":"SF"}`)
	if err := h.Custom(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(stub.req.URLs) != 2 || stub.req.BusinessType != "Bakery" || stub.req.Location != "SF" {
		t.Fatalf("unexpected request %+v", stub.req)
	}
	var data scrape.Result
	decodeEnvelope(t, rec, &data)
	if len(data.Businesses) != 1 || data.Stats.Failed != 1 || data.Errors[0].Category != entity.CategoryValidation {
		t.Fatalf("unexpected result %+v", data)
	}
}

func TestScrapeHandlerValidation(t *testing.T) {
	tooMany := `{"urls":[` + strings.Repeat(`"a.com",`, maxScrapeURLs) + `"b.com"]}`
	for name, body := range map[string]string{
		"invalid payload": "{",
		"no urls":         `{"urls":[]}`,
		"too many urls":   tooMany,
	} {
		t.Run(name, func(t *testing.T) {
			stub := &scraperStub{}
			c, rec := newJSONContext(http.MethodPost, "/api/scrape/custom", body)
			if err := NewScrapeHandler(stub).Custom(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if stub.req.URLs != nil {
				t.Fatalf("scraper must not be called")
			}
		})
	}
}

func TestScrapeHandlerTimeout(t *testing.T) {
	stub := &scraperStub{err: eris.Wrap(scrape.ErrScrapeTimeout, "deadline of 5m0s exceeded")}
	c, rec := newJSONContext(http.MethodPost, "/api/scrape/custom", `{"urls":["example.com"]}`)
	if err := NewScrapeHandler(stub).Custom(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec, nil); env.Status != "error" {
		t.Fatalf("expected error envelope, got %+v", env)
	}
}

func TestEnrichHandler(t *testing.T) {
	stub := &enricherStub{}
	h := NewEnrichHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/enrich/emails", `{"businesses":[{"name":"Acme","website":"acme.com"}]}`)
	if err := h.Emails(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || stub.field != "email" {
		t.Fatalf("unexpected call: code=%d field=%q", rec.Code, stub.field)
	}
	var data struct {
		Businesses []entity.BusinessRecord `json:"businesses"`
		Stats      entity.EnrichStats      `json:"stats"`
	}
	decodeEnvelope(t, rec, &data)
	if data.Businesses[0].Email != "info@acme.com" || data.Stats.Enriched != 1 {
		t.Fatalf("unexpected data %+v", data)
	}

	c, rec = newJSONContext(http.MethodPost, "/api/enrich/phones", `{"businesses":[{"name":"Acme","website":"acme.com"}]}`)
	if err := h.Phones(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || stub.field != "phone" {
		t.Fatalf("unexpected call: code=%d field=%q", rec.Code, stub.field)
	}

	c, rec = newJSONContext(http.MethodPost, "/api/enrich/phones", `{"businesses":[]}`)
	_ = h.Phones(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty businesses, got %d", rec.Code)
	}
}

func TestExportHandler(t *testing.T) {
	h := NewExportHandler()
	body := `{"businesses":[{"name":"Acme, Inc.","website":""},{"name":"Site Co","website":"https://site.co/"}],"fields":["name"],"format":"csv","onlyWithoutWebsite":true}`

	c, rec := newJSONContext(http.MethodPost, "/api/export", body)
	if err := h.Export(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != `attachment; filename="businesses.csv"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != "Name\n\"Acme, Inc.\"\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestExportHandlerErrors(t *testing.T) {
	for name, body := range map[string]string{
		"invalid payload": "{",
		"unknown format":  `{"businesses":[],"format":"xml"}`,
		"unknown field":   `{"businesses":[],"format":"csv","fields":["rating"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, rec := newJSONContext(http.MethodPost, "/api/export", body)
			if err := NewExportHandler().Export(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}
