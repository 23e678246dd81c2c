package service

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"

	"github.com/octobees/leads-extractor/internal/config"
	"github.com/octobees/leads-extractor/internal/entity"
)

var (
	emailPattern       = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	placeholderLocal   = regexp.MustCompile(`^(test|example|sample|demo|noreply|no-reply)\d*$`)
	nonDigit           = regexp.MustCompile(`\D`)
	idnaProfile        = idna.Lookup
	maxEmailLength     = 254
	maxNameLength      = 200
	maxAddressLength   = 500
	minPhoneDigits     = 7
	maxPhoneDigits     = 15
	identicalDigitsRun = 7
)

// Validator normalizes raw business fields into their canonical shape. It holds
// only read-only data tables and is safe for concurrent use.
type Validator struct {
	disposable  map[string]struct{}
	placeholder map[string]struct{}
	fakePhones  map[string]struct{}
}

// NewValidator builds a validator backed by the given denylists.
func NewValidator(lists config.Denylists) *Validator {
	return &Validator{
		disposable:  toSet(lists.DisposableEmailDomains),
		placeholder: toSet(lists.PlaceholderEmailDomains),
		fakePhones:  toSet(lists.FakePhoneNumbers),
	}
}

// ValidatePhone returns the canonical phone form, or false when the input is not
// a plausible number.
func (v *Validator) ValidatePhone(raw string) (string, bool) {
	digits := nonDigit.ReplaceAllString(raw, "")
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", false
	}
	if v.IsFakePhone(digits) {
		return "", false
	}

	switch {
	case len(digits) == 10:
		if digits[0] == '0' || digits[0] == '1' {
			return "", false
		}
		return formatNANP(digits), true
	case len(digits) == 11 && digits[0] == '1':
		if digits[1] == '0' || digits[1] == '1' {
			return "", false
		}
		return "+1 " + formatNANP(digits[1:]), true
	default:
		return "+" + digits, true
	}
}

// IsFakePhone reports whether a digit string is a known dummy or repeated sequence.
func (v *Validator) IsFakePhone(digits string) bool {
	if hasIdenticalRun(digits, identicalDigitsRun) {
		return true
	}
	if _, ok := v.fakePhones[digits]; ok {
		return true
	}
	if len(digits) == 11 && digits[0] == '1' {
		if _, ok := v.fakePhones[digits[1:]]; ok {
			return true
		}
	}
	if len(digits) > 7 {
		if _, ok := v.fakePhones[digits[len(digits)-7:]]; ok {
			return true
		}
	}
	return false
}

// ValidateEmail reports whether raw is a deliverable-looking business address.
func (v *Validator) ValidateEmail(raw string) bool {
	_, ok := v.NormalizeEmail(raw)
	return ok
}

// NormalizeEmail lower-cases and trims raw and returns it when valid.
func (v *Validator) NormalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > maxEmailLength {
		return "", false
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", false
	}
	local, domain := email[:at], email[at+1:]

	asciiDomain, err := idnaProfile.ToASCII(domain)
	if err != nil || asciiDomain == "" {
		return "", false
	}
	if !emailPattern.MatchString(local + "@" + asciiDomain) {
		return "", false
	}
	if placeholderLocal.MatchString(local) {
		return "", false
	}
	if matchesDomain(v.disposable, asciiDomain) || matchesDomain(v.placeholder, asciiDomain) {
		return "", false
	}
	return email, true
}

// ValidateWebsite returns the canonical https URL for raw, e.g. every spelling of
// example.com yields https://example.com/.
func (v *Validator) ValidateWebsite(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if s == "" {
		return "", false
	}

	domain, rest := s, ""
	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		domain, rest = s[:idx], s[idx:]
	}
	host, port := domain, ""
	if h, p, err := net.SplitHostPort(domain); err == nil {
		host, port = h, ":"+p
	}
	if !isPlausibleHost(host) {
		return "", false
	}

	asciiHost, err := idnaProfile.ToASCII(host)
	if err != nil || asciiHost == "" {
		return "", false
	}

	u, err := url.Parse("https://" + asciiHost + port + rest)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), true
}

// ValidateBusinessName trims, collapses whitespace and truncates a business name.
func (v *Validator) ValidateBusinessName(raw string) (string, bool) {
	return cleanText(raw, 2, maxNameLength)
}

// ValidateAddress trims, collapses whitespace and truncates an address.
func (v *Validator) ValidateAddress(raw string) (string, bool) {
	return cleanText(raw, 5, maxAddressLength)
}

// ValidateBusinessResult validates every field of record. Rejected fields become
// empty; the call never fails.
func (v *Validator) ValidateBusinessResult(record entity.BusinessRecord) entity.BusinessRecord {
	var out entity.BusinessRecord
	out.Name, _ = v.ValidateBusinessName(record.Name)
	out.Phone, _ = v.ValidatePhone(record.Phone)
	out.Email, _ = v.NormalizeEmail(record.Email)
	out.Website, _ = v.ValidateWebsite(record.Website)
	out.Address, _ = v.ValidateAddress(record.Address)
	out.Category = collapseWhitespace(record.Category)
	return out
}

func formatNANP(digits string) string {
	return "(" + digits[0:3] + ") " + digits[3:6] + "-" + digits[6:10]
}

func hasIdenticalRun(digits string, n int) bool {
	run := 1
	for i := 1; i < len(digits); i++ {
		if digits[i] == digits[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func isPlausibleHost(host string) bool {
	if host == "" || host == "localhost" {
		return false
	}
	if !strings.Contains(host, ".") || strings.HasSuffix(host, ".") || strings.HasPrefix(host, ".") {
		return false
	}
	if strings.IndexFunc(host, unicode.IsSpace) >= 0 {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return false
	}
	return true
}

func matchesDomain(set map[string]struct{}, domain string) bool {
	if _, ok := set[domain]; ok {
		return true
	}
	for d := range set {
		if strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func cleanText(raw string, minLen, maxLen int) (string, bool) {
	s := collapseWhitespace(raw)
	runes := []rune(s)
	if len(runes) < minLen {
		return "", false
	}
	if len(runes) > maxLen {
		s = strings.TrimSpace(string(runes[:maxLen]))
	}
	return s, true
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
