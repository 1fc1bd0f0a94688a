package relevance

import (
	"net/url"
	"sort"
	"strings"

	"bookharvest/models"
)

// NormalizeURL reduces a URL to scheme+host+path plus its query string with
// keys in sorted order, so that parameter ordering does not defeat dedup.
func NormalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	normalized := strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host) + parsed.Path
	if query := parsed.Query().Encode(); query != "" {
		normalized += "?" + query
	}
	return normalized
}

// Rank removes duplicate candidates by normalized detail URL (first seen
// wins), sorts by relevance descending with a stable sort, and truncates to
// limit. The input slice is not modified.
func Rank(candidates []models.Candidate, limit int) []models.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := NormalizeURL(c.DetailURL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
