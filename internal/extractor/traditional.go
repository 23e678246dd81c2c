package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nyaruka/phonenumbers"

	"github.com/octobees/leads-extractor/internal/service"
)

const (
	maxEmails = 5
	maxPhones = 3
)

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	phoneRegexes = []*regexp.Regexp{
		// North America
		regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?[2-9]\d{2}\)?[\s.\-]?\d{3}[\s.\-]\d{4}\b`),
		// international with country code
		regexp.MustCompile(`\+\d{1,3}[\s.\-]?\(?\d{1,4}\)?(?:[\s.\-]?\d{2,4}){2,4}\b`),
		// UK national
		regexp.MustCompile(`\b0\d{2,4}\s?\d{3,4}\s?\d{3,4}\b`),
		// grouped digits
		regexp.MustCompile(`\b\d{3,4}[\s.\-]\d{3,4}[\s.\-]\d{3,4}\b`),
	}

	placeholderEmailMarkers = []string{"example.", "domain.com", "email.com", "yoursite", "yourdomain", "sentry", "wixpress"}
	assetSuffixes           = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js", ".ico"}
)

// Traditional extracts contacts with regular expressions and link targets.
type Traditional struct {
	validator *service.Validator
}

// NewTraditional builds a heuristic extractor.
func NewTraditional(v *service.Validator) *Traditional {
	return &Traditional{validator: v}
}

// Extract scans mailto/tel links and the page text for contacts.
func (t *Traditional) Extract(doc *goquery.Document) ContactExtractionResult {
	text := FullText(doc)

	var emailCandidates, phoneCandidates []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		lower := strings.ToLower(href)
		switch {
		case strings.HasPrefix(lower, "mailto:"):
			emailCandidates = append(emailCandidates, mailtoAddress(href))
		case strings.HasPrefix(lower, "tel:"):
			phoneCandidates = append(phoneCandidates, strings.TrimSpace(href[len("tel:"):]))
		}
	})
	emailCandidates = append(emailCandidates, emailRegex.FindAllString(text, -1)...)
	for _, re := range phoneRegexes {
		phoneCandidates = append(phoneCandidates, re.FindAllString(text, -1)...)
	}

	result := ContactExtractionResult{
		Emails: t.FilterEmails(emailCandidates),
		Phones: t.FilterPhones(phoneCandidates),
		Method: MethodTraditional,
	}
	if len(result.Emails) > 0 {
		result.Confidence.Emails = 0.6
	}
	if len(result.Phones) > 0 {
		result.Confidence.Phones = 0.5
	}
	return result
}

// FilterEmails normalizes, drops placeholders and duplicates, and caps the list.
func (t *Traditional) FilterEmails(candidates []string) []string {
	out := make([]string, 0, maxEmails)
	seen := make(map[string]struct{}, len(candidates))
	for _, raw := range candidates {
		if len(out) == maxEmails {
			break
		}
		email, ok := t.validator.NormalizeEmail(raw)
		if !ok || isPlaceholderEmail(email) {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

// FilterPhones canonicalizes plausible numbers, drops fakes and duplicates, and
// caps the list.
func (t *Traditional) FilterPhones(candidates []string) []string {
	out := make([]string, 0, maxPhones)
	seen := make(map[string]struct{}, len(candidates))
	for _, raw := range candidates {
		if len(out) == maxPhones {
			break
		}
		raw = strings.TrimSpace(raw)
		if !plausibleInternational(raw) {
			continue
		}
		phone, ok := t.validator.ValidatePhone(raw)
		if !ok {
			continue
		}
		key := nationalDigits(phone)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, phone)
	}
	return out
}

// plausibleInternational lets non-NANP "+CC" numbers through only when libphonenumber
// considers them possible.
func plausibleInternational(raw string) bool {
	if !strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "+1") {
		return true
	}
	num, err := phonenumbers.Parse(raw, "ZZ")
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(num)
}

func isPlaceholderEmail(email string) bool {
	for _, marker := range placeholderEmailMarkers {
		if strings.Contains(email, marker) {
			return true
		}
	}
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(email, suffix) {
			return true
		}
	}
	return false
}

func mailtoAddress(href string) string {
	addr := href[len("mailto:"):]
	if idx := strings.Index(addr, "?"); idx >= 0 {
		addr = addr[:idx]
	}
	if unescaped, err := url.PathUnescape(addr); err == nil {
		addr = unescaped
	}
	return strings.TrimSpace(addr)
}

// nationalDigits strips formatting and the NANP country code so "+1 (415) ..."
// and "(415) ..." compare equal.
func nationalDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		return digits[1:]
	}
	return digits
}
