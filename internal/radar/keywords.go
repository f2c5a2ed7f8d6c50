package radar

import (
	"regexp"
	"strings"
)

var keywordSeparators = regexp.MustCompile(`[_-]+`)

// NormalizeKeywords lowercases and trims each keyword, collapses internal
// underscores and hyphens to single spaces, drops empties and duplicates.
// Order of first appearance is preserved.
func NormalizeKeywords(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		value := strings.ToLower(strings.TrimSpace(kw))
		value = keywordSeparators.ReplaceAllString(value, " ")
		value = strings.Join(strings.Fields(value), " ")
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// MatchKeywords returns the subset of keywords contained in title,
// case-insensitively. Keywords are expected to be pre-normalized.
func MatchKeywords(title string, keywords []string) []string {
	lowered := strings.ToLower(title)
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
