package app

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"rahhal_engine/internal/domain"
)

// MatchFacilities resolves free-text facility phrases against the canonical
// catalog. Each phrase is scored against every catalog name with the weighted
// combined ratio and mapped to the best-scoring facility at or above
// threshold. Phrases that match nothing drop out silently.
func MatchFacilities(phrases []string, catalog []domain.Facility, threshold int) map[string]int64 {
	out := make(map[string]int64, len(phrases))
	for _, phrase := range phrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p == "" {
			continue
		}
		best, bestScore := int64(0), 0
		for _, f := range catalog {
			s := fuzzy.WRatio(p, strings.ToLower(f.Name))
			if s > bestScore {
				best, bestScore = f.ID, s
			}
		}
		if bestScore >= threshold {
			out[phrase] = best
		}
	}
	return out
}

// matchedIDs flattens a match map into a deduplicated id list; order does
// not matter to the SQL ANY filter.
func matchedIDs(matches map[string]int64) []int64 {
	seen := make(map[int64]struct{}, len(matches))
	out := make([]int64, 0, len(matches))
	for _, id := range matches {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
