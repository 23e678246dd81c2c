package search

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/octobees/leads-extractor/internal/entity"
)

var (
	// card layouts in priority order; the generic organic result is the last resort
	cardSelectors = []string{
		"div.VkpGBb",
		"div.rllt__details",
		"div[jscontroller][data-cid]",
		"div.g",
	}
	nameSelectors = []string{`div[role="heading"]`, ".dbg0pd", "h3"}
	nextSelectors = []string{
		"a#pnnext",
		`a[aria-label="Next page"]`,
		`a[aria-label="Next"]`,
		"td.d6cvqb a[id=pnnext]",
	}

	phoneRegex        = regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?\(?\d{2,4}\)?[\s.\-]?\d{3}[\s.\-]?\d{3,4}`)
	resultsCountRegex = regexp.MustCompile(`([\d.,]+)\s+results?`)
	hoursMarkers      = []string{"open", "closed", "closes", "opens", "hours"}
)

const categorySeparator = "·"

// parseListings extracts raw, unvalidated records from a results page.
func parseListings(doc *goquery.Document, pageURL string) []entity.BusinessRecord {
	base, _ := url.Parse(pageURL)

	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		cards = doc.Find(sel)
		if cards.Length() > 0 {
			break
		}
	}

	records := make([]entity.BusinessRecord, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		name := cardName(card)
		if name == "" {
			return
		}
		lines := detailLines(card)
		records = append(records, entity.BusinessRecord{
			Name:     name,
			Category: cardCategory(lines),
			Address:  cardAddress(lines),
			Phone:    cardPhone(lines),
			Website:  cardWebsite(card, base),
		})
	})
	return records
}

func cardName(card *goquery.Selection) string {
	for _, sel := range nameSelectors {
		if text := clean(card.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// detailLines returns the text rows of a card's details block, or every leaf
// element's text when the card has no details block.
func detailLines(card *goquery.Selection) []string {
	var lines []string
	collect := func(_ int, s *goquery.Selection) {
		if text := clean(s.Text()); text != "" {
			lines = append(lines, text)
		}
	}

	details := card.Find(".rllt__details").First()
	if details.Length() == 0 && card.HasClass("rllt__details") {
		details = card
	}
	if details.Length() > 0 {
		details.Children().Each(collect)
		return lines
	}
	card.Find("div, span").Each(func(i int, s *goquery.Selection) {
		if s.Children().Length() == 0 {
			collect(i, s)
		}
	})
	return lines
}

func cardCategory(lines []string) string {
	for _, line := range lines {
		if !strings.Contains(line, categorySeparator) || isHoursLine(line) || phoneRegex.MatchString(line) {
			continue
		}
		parts := strings.Split(line, categorySeparator)
		for i := len(parts) - 1; i >= 1; i-- {
			part := clean(parts[i])
			if part != "" && !strings.HasPrefix(part, "$") && hasLetter(part) {
				return part
			}
		}
	}
	return ""
}

func cardAddress(lines []string) string {
	for _, line := range lines {
		if strings.Contains(line, categorySeparator) || isHoursLine(line) || phoneRegex.MatchString(line) {
			continue
		}
		if len(line) >= 5 && hasLetter(line) && strings.ContainsAny(line, "0123456789") {
			return line
		}
	}
	return ""
}

func cardPhone(lines []string) string {
	for _, line := range lines {
		if match := phoneRegex.FindString(line); match != "" {
			return strings.TrimSpace(match)
		}
	}
	return ""
}

// cardWebsite prefers an explicit "Website" link and otherwise takes the first
// link leaving the search engine.
func cardWebsite(card *goquery.Selection, base *url.URL) string {
	var fallback string
	var website string
	card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		target := externalTarget(a.AttrOr("href", ""), base)
		if target == "" {
			return true
		}
		if strings.EqualFold(clean(a.Text()), "website") {
			website = target
			return false
		}
		if fallback == "" {
			fallback = target
		}
		return true
	})
	if website != "" {
		return website
	}
	return fallback
}

// externalTarget resolves href and unwraps "/url?q=" redirect wrappers. Links
// that stay on the search engine yield "".
func externalTarget(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Path == "/url" {
		for _, param := range []string{"q", "url"} {
			if wrapped := u.Query().Get(param); wrapped != "" {
				if inner, err := url.Parse(wrapped); err == nil {
					u = inner
					break
				}
			}
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || strings.Contains(host, "google.") || (base != nil && strings.EqualFold(host, base.Hostname())) {
		return ""
	}
	return u.String()
}

func parsePagination(doc *goquery.Document, page int) entity.Pagination {
	p := entity.Pagination{
		CurrentPage:     page,
		HasPreviousPage: page > 1,
	}
	for _, sel := range nextSelectors {
		if doc.Find(sel).Length() > 0 {
			p.HasNextPage = true
			break
		}
	}

	p.TotalResults = parseResultCount(doc.Find("#result-stats").First().Text())
	if pages := int(math.Ceil(float64(p.TotalResults) / resultsPerPage)); p.TotalResults > 0 && pages >= page {
		p.TotalPages = pages
		return p
	}
	p.TotalPages = page
	if p.HasNextPage {
		p.TotalPages++
	}
	return p
}

// parseResultCount reads "About 1,230 results" style counters.
func parseResultCount(text string) int {
	m := resultsCountRegex.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	digits := strings.NewReplacer(",", "", ".", "").Replace(m[1])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func isHoursLine(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range hoursMarkers {
		if strings.HasPrefix(lower, marker) || strings.Contains(lower, categorySeparator+" "+marker) {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127 {
			return true
		}
	}
	return false
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
