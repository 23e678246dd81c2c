package scrape

import (
	"strings"

	"github.com/octobees/leads-extractor/internal/entity"
)

// classification rules are checked in order; the first matching substring wins.
var classificationRules = []struct {
	markers  []string
	category entity.ErrorCategory
}{
	{[]string{"timeout", "timed out", "deadline exceeded"}, entity.CategoryTimeout},
	{[]string{"access denied", "429", "403", "404", "enotfound", "econnrefused", "no such host", "connection refused", "network error"}, entity.CategoryNetwork},
	{[]string{"not a business"}, entity.CategoryContent},
	{[]string{"no contact information"}, entity.CategoryContent},
	{[]string{"invalid url"}, entity.CategoryValidation},
	{[]string{"500", "502", "503", "server error"}, entity.CategoryNetwork},
	{[]string{"quota", "exceeded"}, entity.CategoryNetwork},
}

// Classify maps a per-URL failure to a reporting category by its message.
func Classify(err error) entity.ErrorCategory {
	if err == nil {
		return entity.CategoryUnknown
	}
	msg := strings.ToLower(err.Error())
	for _, rule := range classificationRules {
		for _, marker := range rule.markers {
			if strings.Contains(msg, marker) {
				return rule.category
			}
		}
	}
	return entity.CategoryUnknown
}
