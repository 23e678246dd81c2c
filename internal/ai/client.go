package ai

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrDisabled is returned by Disabled so callers fall back to heuristics.
var ErrDisabled = eris.New("ai analysis disabled")

// Confidence holds per-field confidence scores in [0, 1].
type Confidence struct {
	Emails float64 `json:"emails"`
	Phones float64 `json:"phones"`
}

// ContactAnalysis is the model's view of the contacts on a page.
type ContactAnalysis struct {
	Emails     []string   `json:"emails"`
	Phones     []string   `json:"phones"`
	Confidence Confidence `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
}

// BusinessAnalysis is the model's verdict on whether a page belongs to a business.
type BusinessAnalysis struct {
	IsBusiness   bool    `json:"isBusiness"`
	BusinessName string  `json:"businessName"`
	BusinessType string  `json:"businessType"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// Client analyzes page text with a language model.
type Client interface {
	ExtractContacts(ctx context.Context, url, text string) (ContactAnalysis, error)
	AnalyzeBusiness(ctx context.Context, url, text string) (BusinessAnalysis, error)
}

// Disabled is the Client used when no model is configured.
type Disabled struct{}

// ExtractContacts always returns ErrDisabled.
func (Disabled) ExtractContacts(context.Context, string, string) (ContactAnalysis, error) {
	return ContactAnalysis{}, ErrDisabled
}

// AnalyzeBusiness always returns ErrDisabled.
func (Disabled) AnalyzeBusiness(context.Context, string, string) (BusinessAnalysis, error) {
	return BusinessAnalysis{}, ErrDisabled
}
