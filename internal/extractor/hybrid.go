package extractor

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/octobees/leads-extractor/internal/ai"
	"github.com/octobees/leads-extractor/internal/cache"
	"github.com/octobees/leads-extractor/internal/fetcher"
	"github.com/octobees/leads-extractor/internal/metrics"
	"github.com/octobees/leads-extractor/internal/service"
	"github.com/octobees/leads-extractor/internal/service/scoring"
)

// Extraction methods.
const (
	MethodAI          = "ai"
	MethodTraditional = "traditional"
	MethodHybrid      = "hybrid"
	MethodHeuristic   = "heuristic"
)

// cachedConfidence is reported for fields served from the contacts cache.
const cachedConfidence = 0.8

var contactLinkMarkers = []string{"contact", "kontakt", "contacto", "about"}

// Confidence holds per-field confidence scores in [0, 1].
type Confidence struct {
	Emails float64 `json:"emails"`
	Phones float64 `json:"phones"`
}

// ContactExtractionResult is the outcome of one extraction run.
type ContactExtractionResult struct {
	Emails     []string   `json:"emails"`
	Phones     []string   `json:"phones"`
	Confidence Confidence `json:"confidence"`
	Method     string     `json:"method"`
}

// Empty reports whether nothing was found.
func (r ContactExtractionResult) Empty() bool {
	return len(r.Emails) == 0 && len(r.Phones) == 0
}

// CachedContacts is the cached projection of an extraction result.
type CachedContacts struct {
	Emails []string
	Phones []string
}

// BusinessCheck is the verdict on whether a page belongs to a business.
type BusinessCheck struct {
	IsBusiness   bool    `json:"isBusiness"`
	Confidence   float64 `json:"confidence"`
	BusinessName string  `json:"businessName"`
	BusinessType string  `json:"businessType"`
	Reasoning    string  `json:"reasoning"`
	Method       string  `json:"method"`
}

// PageFetcher retrieves a single page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, opts fetcher.Options) (*fetcher.Response, error)
}

// Hybrid extracts contacts with the model first and falls back to heuristics.
type Hybrid struct {
	fetcher     PageFetcher
	cache       cache.Cache
	ai          ai.Client
	traditional *Traditional
	scorer      *scoring.Scorer
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// Option configures a Hybrid extractor.
type Option func(*Hybrid)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Hybrid) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics records extraction methods.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hybrid) {
		h.metrics = m
	}
}

// NewHybrid wires the extraction pipeline. A nil aiClient disables the model stage.
func NewHybrid(f PageFetcher, c cache.Cache, aiClient ai.Client, v *service.Validator, scorer *scoring.Scorer, opts ...Option) *Hybrid {
	if aiClient == nil {
		aiClient = ai.Disabled{}
	}
	h := &Hybrid{
		fetcher:     f,
		cache:       c,
		ai:          aiClient,
		traditional: NewTraditional(v),
		scorer:      scorer,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Extract returns the contacts published on pageURL.
func (h *Hybrid) Extract(ctx context.Context, pageURL string) (ContactExtractionResult, error) {
	if cached, ok := cache.GetAs[CachedContacts](h.cache, cache.ContactsKey(pageURL)); ok && (len(cached.Emails) > 0 || len(cached.Phones) > 0) {
		h.metrics.IncExtraction(MethodHybrid)
		return fromCache(cached), nil
	}

	doc, err := h.document(ctx, pageURL)
	if err != nil {
		return ContactExtractionResult{}, err
	}

	result, ok := h.aiExtract(ctx, pageURL, PageText(doc))
	if !ok {
		result = h.traditional.Extract(doc)
		if result.Empty() {
			result = h.followContactPage(ctx, pageURL, doc, result)
		}
	}
	h.metrics.IncExtraction(result.Method)

	if !result.Empty() && h.cache != nil {
		h.cache.Set(cache.ContactsKey(pageURL), CachedContacts{Emails: result.Emails, Phones: result.Phones}, cache.ContactsTTL)
	}
	return result, nil
}

// Contacts adapts Extract to the enrichment lookup.
func (h *Hybrid) Contacts(ctx context.Context, website string) (service.Contacts, error) {
	result, err := h.Extract(ctx, website)
	if err != nil {
		return service.Contacts{}, err
	}
	return service.Contacts{Emails: result.Emails, Phones: result.Phones}, nil
}

// IsBusinessWebsite decides whether pageURL belongs to a business, asking the
// model first and scoring page indicators when it is unavailable.
func (h *Hybrid) IsBusinessWebsite(ctx context.Context, pageURL string) (BusinessCheck, error) {
	doc, err := h.document(ctx, pageURL)
	if err != nil {
		return BusinessCheck{}, err
	}
	title := PageTitle(doc)
	text := PageText(doc)

	analysis, err := h.ai.AnalyzeBusiness(ctx, pageURL, text)
	if err == nil {
		name := analysis.BusinessName
		if name == "" {
			name = title
		}
		return BusinessCheck{
			IsBusiness:   analysis.IsBusiness,
			Confidence:   analysis.Confidence,
			BusinessName: name,
			BusinessType: analysis.BusinessType,
			Reasoning:    analysis.Reasoning,
			Method:       MethodAI,
		}, nil
	}
	if !errors.Is(err, ai.ErrDisabled) {
		h.logger.Warn("ai business analysis failed, using heuristics", zap.String("url", pageURL), zap.Error(err))
	}

	score := h.scorer.ComputeScore(scoring.PageSignals{
		URL:       pageURL,
		Title:     title,
		Text:      FullText(doc),
		HasTel:    hasLinkScheme(doc, "tel:"),
		HasMailto: hasLinkScheme(doc, "mailto:"),
	})
	return BusinessCheck{
		IsBusiness:   score.IsBusiness,
		Confidence:   score.Confidence,
		BusinessName: title,
		Reasoning:    score.Reasoning,
		Method:       MethodHeuristic,
	}, nil
}

func (h *Hybrid) aiExtract(ctx context.Context, pageURL, text string) (ContactExtractionResult, bool) {
	if text == "" {
		return ContactExtractionResult{}, false
	}
	analysis, err := h.ai.ExtractContacts(ctx, pageURL, text)
	if err != nil {
		if !errors.Is(err, ai.ErrDisabled) {
			h.logger.Warn("ai contact extraction failed, using heuristics", zap.String("url", pageURL), zap.Error(err))
		}
		return ContactExtractionResult{}, false
	}

	result := ContactExtractionResult{
		Emails: h.traditional.FilterEmails(analysis.Emails),
		Phones: h.traditional.FilterPhones(analysis.Phones),
		Method: MethodAI,
	}
	if result.Empty() {
		return ContactExtractionResult{}, false
	}
	if len(result.Emails) > 0 {
		result.Confidence.Emails = analysis.Confidence.Emails
	}
	if len(result.Phones) > 0 {
		result.Confidence.Phones = analysis.Confidence.Phones
	}
	return result, true
}

func (h *Hybrid) followContactPage(ctx context.Context, pageURL string, doc *goquery.Document, fallback ContactExtractionResult) ContactExtractionResult {
	link := contactPageLink(pageURL, doc)
	if link == "" {
		return fallback
	}
	contactDoc, err := h.document(ctx, link)
	if err != nil {
		h.logger.Debug("contact page fetch failed", zap.String("url", link), zap.Error(err))
		return fallback
	}
	return h.traditional.Extract(contactDoc)
}

// document loads pageURL through the content cache and parses it.
func (h *Hybrid) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, ok := cache.GetAs[string](h.cache, cache.ContentKey(pageURL))
	if !ok {
		resp, err := h.fetcher.Fetch(ctx, pageURL, fetcher.Options{MaxAttempts: 1})
		if err != nil {
			return nil, err
		}
		body = string(resp.Body)
		if h.cache != nil {
			h.cache.Set(cache.ContentKey(pageURL), body, cache.ContentTTL)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "parse html for %s", pageURL)
	}
	return doc, nil
}

func contactPageLink(pageURL string, doc *goquery.Document) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	baseHost := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		label := strings.ToLower(s.Text() + " " + href)
		if !containsAny(label, contactLinkMarkers) {
			return true
		}
		target, err := base.Parse(href)
		if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
			return true
		}
		if strings.TrimPrefix(strings.ToLower(target.Hostname()), "www.") != baseHost {
			return true
		}
		target.Fragment = ""
		if target.String() == base.String() {
			return true
		}
		found = target.String()
		return false
	})
	return found
}

func hasLinkScheme(doc *goquery.Document, scheme string) bool {
	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s.AttrOr("href", ""))), scheme) {
			found = true
			return false
		}
		return true
	})
	return found
}

func fromCache(c CachedContacts) ContactExtractionResult {
	result := ContactExtractionResult{
		Emails: append([]string{}, c.Emails...),
		Phones: append([]string{}, c.Phones...),
		Method: MethodHybrid,
	}
	if len(result.Emails) > 0 {
		result.Confidence.Emails = cachedConfidence
	}
	if len(result.Phones) > 0 {
		result.Confidence.Phones = cachedConfidence
	}
	return result
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
