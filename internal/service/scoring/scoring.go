package scoring

import (
	"net/url"
	"sort"
	"strings"
)

// BusinessThreshold is the minimum indicator score for a page to count as a business site.
const BusinessThreshold = 25

const maxScore = 100

type indicator struct {
	name     string
	points   int
	keywords []string
}

var indicators = []indicator{
	{name: "contact_us", points: 15, keywords: []string{"contact us", "get in touch"}},
	{name: "about_us", points: 10, keywords: []string{"about us", "who we are"}},
	{name: "services", points: 10, keywords: []string{"services", "what we do"}},
	{name: "phone", points: 10, keywords: []string{"phone", "call us", "tel:", "telephone"}},
	{name: "email", points: 10, keywords: []string{"email", "e-mail", "mailto:"}},
	{name: "address", points: 10, keywords: []string{"address", "street", "suite", " ave"}},
	{name: "hours", points: 10, keywords: []string{"hours", "open monday", "mon-fri", "opening times"}},
	{name: "products", points: 5, keywords: []string{"products", "shop now"}},
	{name: "our_team", points: 5, keywords: []string{"our team", "meet the team", "our staff"}},
	{name: "pricing", points: 5, keywords: []string{"pricing", "prices", "quote"}},
	{name: "location", points: 5, keywords: []string{"location", "directions", "find us"}},
	{name: "copyright", points: 5, keywords: []string{"©", "copyright", "all rights reserved"}},
}

// PageSignals captures what the scorer needs from a fetched page.
type PageSignals struct {
	URL       string
	Title     string
	Text      string
	HasTel    bool
	HasMailto bool
}

// ScoreResult reports the verdict, the aggregate score and the matched indicators.
type ScoreResult struct {
	IsBusiness bool
	Total      int
	Confidence float64
	Breakdown  map[string]int
	Reasoning  string
}

// Scorer decides deterministically whether a page belongs to a business.
type Scorer struct {
	nonBusinessHosts []string
}

// NewScorer builds a scorer that treats nonBusinessHosts and their subdomains as
// platforms rather than businesses.
func NewScorer(nonBusinessHosts []string) *Scorer {
	hosts := make([]string, 0, len(nonBusinessHosts))
	for _, h := range nonBusinessHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return &Scorer{nonBusinessHosts: hosts}
}

// ComputeScore evaluates the page and returns the verdict with its breakdown.
func (s *Scorer) ComputeScore(input PageSignals) ScoreResult {
	if host := extractDomain(input.URL); host != "" && s.isPlatform(host) {
		return ScoreResult{
			IsBusiness: false,
			Confidence: 1,
			Breakdown:  map[string]int{},
			Reasoning:  "known non-business platform: " + host,
		}
	}

	text := strings.ToLower(input.Title + " " + input.Text)
	breakdown := make(map[string]int, len(indicators))
	total := 0
	for _, ind := range indicators {
		if !matches(ind, text, input) {
			continue
		}
		breakdown[ind.name] = ind.points
		total += ind.points
	}
	total = min(total, maxScore)

	return ScoreResult{
		IsBusiness: total >= BusinessThreshold,
		Total:      total,
		Confidence: float64(total) / maxScore,
		Breakdown:  breakdown,
		Reasoning:  reasoning(breakdown, total),
	}
}

func (s *Scorer) isPlatform(host string) bool {
	for _, bad := range s.nonBusinessHosts {
		if host == bad || strings.HasSuffix(host, "."+bad) {
			return true
		}
	}
	return false
}

func matches(ind indicator, text string, input PageSignals) bool {
	switch ind.name {
	case "phone":
		if input.HasTel {
			return true
		}
	case "email":
		if input.HasMailto {
			return true
		}
	}
	for _, kw := range ind.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func reasoning(breakdown map[string]int, total int) string {
	if len(breakdown) == 0 {
		return "no business indicators found"
	}
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	verdict := "below"
	if total >= BusinessThreshold {
		verdict = "meets"
	}
	return "indicators: " + strings.Join(names, ", ") + "; score " + verdict + " threshold"
}

func extractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lowered := strings.ToLower(raw)
	if !strings.Contains(lowered, "://") {
		lowered = "https://" + lowered
	}
	parsed, err := url.Parse(lowered)
	if err != nil {
		return ""
	}
	host := strings.TrimSpace(strings.ToLower(parsed.Hostname()))
	host = strings.TrimPrefix(host, "www.")
	return host
}
