package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/octobees/leads-extractor/internal/entity"
)

var sample = []entity.BusinessRecord{
	{Name: "Joe's Pizza, Inc.", Phone: "(212) 555-0199", Email: "joe@joespizza.com", Website: "https://joespizza.com/", Address: "123 Main St", Category: "Pizza"},
	{Name: `The "Best" Bakery`, Phone: "(415) 867-5309", Address: "1 Market St\nSan Francisco", Category: "Bakery"},
}

func TestExportCSV(t *testing.T) {
	body, contentType, err := Export(sample, Options{Format: "csv", Fields: []string{"name", "address"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contentType != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	want := "Name,Address\n" +
		"\"Joe's Pizza, Inc.\",123 Main St\n" +
		"\"The \"\"Best\"\" Bakery\",\"1 Market St\nSan Francisco\"\n"
	if string(body) != want {
		t.Fatalf("unexpected csv:\n%s", body)
	}
}

func TestExportJSON(t *testing.T) {
	body, _, err := Export(sample, Options{Format: "JSON", Fields: []string{"phone", "name"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(body), "[\n  {\n    \"phone\": \"(212) 555-0199\",\n    \"name\": \"Joe's Pizza, Inc.\"\n  },") {
		t.Fatalf("unexpected json layout:\n%s", body)
	}

	var decoded []map[string]string
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded) != 2 || decoded[1]["name"] != `The "Best" Bakery` || len(decoded[1]) != 2 {
		t.Fatalf("unexpected decoded json %+v", decoded)
	}

	empty, _, err := Export(nil, Options{Format: "json"})
	if err != nil || string(empty) != "[]" {
		t.Fatalf("expected empty array, got %q, %v", empty, err)
	}
}

func TestExportTXT(t *testing.T) {
	body, contentType, err := Export(sample, Options{Format: "txt", Fields: []string{"name", "phone"}, OnlyWithoutWebsite: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contentType != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	want := "Business 1\nName: The \"Best\" Bakery\nPhone: (415) 867-5309\n"
	if string(body) != want {
		t.Fatalf("unexpected txt:\n%s", body)
	}

	all, _, _ := Export(sample, Options{Format: "txt", Fields: []string{"name"}})
	if string(all) != "Business 1\nName: Joe's Pizza, Inc.\n\nBusiness 2\nName: The \"Best\" Bakery\n" {
		t.Fatalf("unexpected txt blocks:\n%s", all)
	}
}

func TestExportDefaultsToAllFields(t *testing.T) {
	body, _, err := Export(sample[:1], Options{Format: "csv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if header := strings.SplitN(string(body), "\n", 2)[0]; header != "Name,Phone,Email,Website,Address,Category" {
		t.Fatalf("unexpected header %q", header)
	}
}

func TestExportErrors(t *testing.T) {
	if _, _, err := Export(sample, Options{Format: "xml"}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if _, _, err := Export(sample, Options{Format: "csv", Fields: []string{"name", "rating"}}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}
