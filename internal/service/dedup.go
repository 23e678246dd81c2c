package service

import (
	"strings"

	"github.com/octobees/leads-extractor/internal/entity"
)

// DuplicateThreshold is the similarity above which two records are merged.
const DuplicateThreshold = 0.85

// RemoveDuplicates keeps the first occurrence of every business, in input order.
func RemoveDuplicates(records []entity.BusinessRecord) []entity.BusinessRecord {
	if len(records) == 0 {
		return []entity.BusinessRecord{}
	}

	seen := make(map[string]struct{}, len(records))
	kept := make([]entity.BusinessRecord, 0, len(records))

	for _, rec := range records {
		sig := signature(rec)
		if sig != "||" {
			if _, dup := seen[sig]; dup {
				continue
			}
		}

		duplicate := false
		for _, existing := range kept {
			if Similarity(rec, existing) > DuplicateThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		if sig != "||" {
			seen[sig] = struct{}{}
		}
		kept = append(kept, rec)
	}
	return kept
}

func signature(rec entity.BusinessRecord) string {
	return strings.ToLower(NormalizeName(rec.Name) + "|" + nonDigit.ReplaceAllString(rec.Phone, "") + "|" + websiteDomain(rec.Website))
}
