package vault

import (
	"sort"
	"strings"

	"github.com/codevault/codevault/internal/models"
)

// Search returns the records where query is a case-insensitive substring of
// the platform, username, comment or password. A blank query returns
// records unchanged.
func Search(query string, records []models.Record) []models.Record {
	if strings.TrimSpace(query) == "" {
		return records
	}
	q := strings.ToLower(query)

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Platform), q) ||
			strings.Contains(strings.ToLower(r.Username), q) ||
			strings.Contains(strings.ToLower(r.Comment), q) ||
			strings.Contains(strings.ToLower(r.Password), q) {
			out = append(out, r)
		}
	}
	return out
}

// UniquePlatforms returns the distinct platform names in byte order.
func UniquePlatforms(records []models.Record) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Platform]; ok {
			continue
		}
		seen[r.Platform] = struct{}{}
		out = append(out, r.Platform)
	}
	sort.Strings(out)
	return out
}

// SuggestPlatforms filters platforms for autocomplete: entries containing
// input case-insensitively, except the one input already names.
func SuggestPlatforms(input string, platforms []string) []string {
	if input == "" {
		return nil
	}
	q := strings.ToLower(input)

	var out []string
	for _, p := range platforms {
		lp := strings.ToLower(p)
		if strings.Contains(lp, q) && lp != q {
			out = append(out, p)
		}
	}
	return out
}
