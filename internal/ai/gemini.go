package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel   = "gemini-2.0-flash"
	maxRetries     = 2
	retryBaseDelay = 500 * time.Millisecond
	maxPromptRunes = 8000
)

// generateFunc sends prompt to the model and returns the raw text answer.
type generateFunc func(ctx context.Context, prompt string, schema *genai.Schema) (string, error)

// Gemini implements Client on top of the Gemini API.
type Gemini struct {
	generate generateFunc
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *zap.Logger
}

// NewGemini connects to the Gemini API with apiKey.
func NewGemini(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "create gemini client")
	}

	generate := func(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
			Temperature:      genai.Ptr[float32](0.1),
		})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return newGemini(generate, logger), nil
}

func newGemini(generate generateFunc, logger *zap.Logger) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{generate: generate, sleep: sleepContext, logger: logger}
}

// ExtractContacts asks the model for the business emails and phone numbers on a page.
func (g *Gemini) ExtractContacts(ctx context.Context, url, text string) (ContactAnalysis, error) {
	prompt := fmt.Sprintf(contactPrompt, url, truncateRunes(text, maxPromptRunes))
	raw, err := g.call(ctx, prompt, contactSchema)
	if err != nil {
		return ContactAnalysis{}, err
	}
	parsed, err := parseJSON[ContactAnalysis](raw)
	if err != nil {
		return ContactAnalysis{}, err
	}
	return normalizeContacts(parsed), nil
}

// AnalyzeBusiness asks the model whether a page belongs to a business.
func (g *Gemini) AnalyzeBusiness(ctx context.Context, url, text string) (BusinessAnalysis, error) {
	prompt := fmt.Sprintf(businessPrompt, url, truncateRunes(text, maxPromptRunes))
	raw, err := g.call(ctx, prompt, businessSchema)
	if err != nil {
		return BusinessAnalysis{}, err
	}
	parsed, err := parseJSON[BusinessAnalysis](raw)
	if err != nil {
		return BusinessAnalysis{}, err
	}
	return normalizeBusiness(parsed), nil
}

func (g *Gemini) call(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			if err := g.sleep(ctx, delay); err != nil {
				return "", eris.Wrap(err, "gemini retry interrupted")
			}
		}

		out, err := g.generate(ctx, prompt, schema)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if isQuotaError(err) {
			return "", eris.Wrap(err, "gemini quota exceeded")
		}
		if !isTransientError(err) || ctx.Err() != nil {
			break
		}
		g.logger.Debug("gemini call failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return "", eris.Wrap(lastErr, "gemini generate content")
}

func isQuotaError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota")
}

func isTransientError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "500", "503", "unavailable", "deadline", "internal"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
