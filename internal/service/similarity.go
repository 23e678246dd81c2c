package service

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/octobees/leads-extractor/internal/entity"
)

// Field weights of the record similarity score. They sum to 1.
const (
	weightName    = 0.4
	weightPhone   = 0.2
	weightWebsite = 0.15
	weightAddress = 0.15
	weightEmail   = 0.1
)

var (
	apostrophes  = strings.NewReplacer("'", "", "\u2019", "", "`", "")
	punctuation  = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	legalSuffix  = regexp.MustCompile(`\b(inc|llc|ltd|corp|co|company|corporation|limited)\b`)
	streetSuffix = regexp.MustCompile(`\b(street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|suite|ste)\b`)
)

// Similarity scores how likely two records describe the same business, in [0, 1].
func Similarity(a, b entity.BusinessRecord) float64 {
	score := weightName * StringSimilarity(NormalizeName(a.Name), NormalizeName(b.Name))
	score += weightPhone * phoneSimilarity(a.Phone, b.Phone)
	score += weightWebsite * websiteSimilarity(a.Website, b.Website)
	score += weightAddress * StringSimilarity(normalizeAddress(a.Address), normalizeAddress(b.Address))
	score += weightEmail * emailSimilarity(a.Email, b.Email)
	return score
}

// StringSimilarity is 1 - levenshtein/maxLen over runes. Either side empty yields 0.
func StringSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// NormalizeName lower-cases a business name and drops punctuation and legal suffixes.
// Apostrophes are removed so "Joe's" and "Joes" agree; other punctuation separates words.
func NormalizeName(name string) string {
	s := apostrophes.Replace(strings.ToLower(name))
	s = punctuation.ReplaceAllString(s, " ")
	s = legalSuffix.ReplaceAllString(s, " ")
	return collapseWhitespace(s)
}

func normalizeAddress(addr string) string {
	s := strings.ToLower(addr)
	s = punctuation.ReplaceAllString(s, " ")
	s = streetSuffix.ReplaceAllString(s, " ")
	return collapseWhitespace(s)
}

func phoneSimilarity(a, b string) float64 {
	da, db := nonDigit.ReplaceAllString(a, ""), nonDigit.ReplaceAllString(b, "")
	if da == "" || db == "" {
		return 0
	}
	if da == db {
		return 1
	}
	if strings.Contains(da, db) || strings.Contains(db, da) {
		return 0.8
	}
	return 0
}

func websiteSimilarity(a, b string) float64 {
	ha, hb := websiteDomain(a), websiteDomain(b)
	if ha == "" || hb == "" {
		return 0
	}
	if ha == hb {
		return 1
	}
	return 0
}

func emailSimilarity(a, b string) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	ia, ib := strings.LastIndex(a, "@"), strings.LastIndex(b, "@")
	if ia >= 0 && ib >= 0 && a[ia+1:] == b[ib+1:] {
		return 0.7
	}
	return 0
}

// websiteDomain extracts the lower-cased host of a website without the www. prefix.
func websiteDomain(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
