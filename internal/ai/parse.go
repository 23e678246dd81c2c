package ai

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rotisserie/eris"
)

// parseJSON decodes model output into T, repairing malformed JSON when needed.
func parseJSON[T any](content string) (T, error) {
	var result T
	content = stripFences(content)
	if content == "" {
		return result, eris.New("empty model response")
	}
	if !strings.HasPrefix(content, "{") && !strings.HasPrefix(content, "[") {
		return result, eris.Errorf("model response is not JSON: %.80q", content)
	}

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	// models occasionally emit trailing commas or unterminated strings
	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, eris.Wrapf(err, "unmarshal model response (repair failed: %v)", repairErr)
	}
	result = *new(T)
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return result, eris.Wrap(err, "unmarshal repaired model response")
	}
	return result, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func normalizeContacts(in ContactAnalysis) ContactAnalysis {
	if in.Emails == nil {
		in.Emails = []string{}
	}
	if in.Phones == nil {
		in.Phones = []string{}
	}
	in.Confidence.Emails = clamp01(in.Confidence.Emails)
	in.Confidence.Phones = clamp01(in.Confidence.Phones)
	return in
}

func normalizeBusiness(in BusinessAnalysis) BusinessAnalysis {
	in.Confidence = clamp01(in.Confidence)
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.BusinessType = strings.TrimSpace(in.BusinessType)
	return in
}
