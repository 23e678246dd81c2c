package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/octobees/leads-extractor/internal/entity"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatTXT  = "txt"
)

var (
	ErrUnknownField  = eris.New("unknown export field")
	ErrUnknownFormat = eris.New("unknown export format")
)

type field struct {
	name  string
	label string
	value func(entity.BusinessRecord) string
}

var allFields = []field{
	{"name", "Name", func(r entity.BusinessRecord) string { return r.Name }},
	{"phone", "Phone", func(r entity.BusinessRecord) string { return r.Phone }},
	{"email", "Email", func(r entity.BusinessRecord) string { return r.Email }},
	{"website", "Website", func(r entity.BusinessRecord) string { return r.Website }},
	{"address", "Address", func(r entity.BusinessRecord) string { return r.Address }},
	{"category", "Category", func(r entity.BusinessRecord) string { return r.Category }},
}

// Options select the columns, the format and an optional filter.
type Options struct {
	Fields             []string
	Format             string
	OnlyWithoutWebsite bool
}

// ContentType returns the MIME type and file extension for format.
func ContentType(format string) (string, string, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "text/csv; charset=utf-8", "csv", nil
	case FormatJSON:
		return "application/json; charset=utf-8", "json", nil
	case FormatTXT:
		return "text/plain; charset=utf-8", "txt", nil
	default:
		return "", "", eris.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

// Export renders records in the requested format and returns the body with its
// content type.
func Export(records []entity.BusinessRecord, opts Options) ([]byte, string, error) {
	contentType, _, err := ContentType(opts.Format)
	if err != nil {
		return nil, "", err
	}
	fields, err := selectFields(opts.Fields)
	if err != nil {
		return nil, "", err
	}

	if opts.OnlyWithoutWebsite {
		filtered := make([]entity.BusinessRecord, 0, len(records))
		for _, r := range records {
			if strings.TrimSpace(r.Website) == "" {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	var body []byte
	switch strings.ToLower(opts.Format) {
	case FormatCSV:
		body, err = renderCSV(records, fields)
	case FormatJSON:
		body, err = renderJSON(records, fields)
	default:
		body = renderTXT(records, fields)
	}
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

func selectFields(names []string) ([]field, error) {
	if len(names) == 0 {
		return allFields, nil
	}
	out := make([]field, 0, len(names))
	for _, name := range names {
		f, ok := lookupField(name)
		if !ok {
			return nil, eris.Wrapf(ErrUnknownField, "%q", name)
		}
		out = append(out, f)
	}
	return out, nil
}

func lookupField(name string) (field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range allFields {
		if f.name == name {
			return f, true
		}
	}
	return field{}, false
}

func renderCSV(records []entity.BusinessRecord, fields []field) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.label
	}
	if err := w.Write(header); err != nil {
		return nil, eris.Wrap(err, "write csv header")
	}
	for _, r := range records {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = f.value(r)
		}
		if err := w.Write(row); err != nil {
			return nil, eris.Wrap(err, "write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "flush csv")
	}
	return buf.Bytes(), nil
}

// renderJSON keeps the selected field order, which a map would lose.
func renderJSON(records []entity.BusinessRecord, fields []field) ([]byte, error) {
	if len(records) == 0 {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, r := range records {
		buf.WriteString("  {\n")
		for j, f := range fields {
			key, _ := marshalString(f.name)
			value, err := marshalString(f.value(r))
			if err != nil {
				return nil, eris.Wrapf(err, "encode field %s", f.name)
			}
			buf.WriteString("    ")
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(value)
			if j < len(fields)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString("  }")
		if i < len(records)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]")
	return buf.Bytes(), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func renderTXT(records []entity.BusinessRecord, fields []field) []byte {
	var buf bytes.Buffer
	for i, r := range records {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "Business %d\n", i+1)
		for _, f := range fields {
			fmt.Fprintf(&buf, "%s: %s\n", f.label, f.value(r))
		}
	}
	return buf.Bytes()
}
