// Package classify scores feed items against per-region keyword sets
// and assigns categories from each region's rule table.
package classify

import (
	"strings"

	"econwatch/internal/config"
)

// MatchKeywords returns the subsequence of keywords that occur as
// substrings of text (case-folded), in the keyword list's original
// order, with duplicates collapsed by keyword identity. The relevance
// score is the length of the returned slice: distinct matches, not
// occurrence counts.
func MatchKeywords(text string, keywords []string) []string {
	folded := strings.ToLower(text)
	seen := make(map[string]bool, len(keywords))
	var matched []string
	for _, kw := range keywords {
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		if strings.Contains(folded, key) {
			seen[key] = true
			matched = append(matched, kw)
		}
	}
	return matched
}

// Categorize picks the category for a set of matched keywords. Rules
// are evaluated in their configured order; the first rule with a
// trigger that is a case-insensitive substring of any matched keyword
// wins. Order is a tie-break, not an unordered set.
func Categorize(matched []string, rules []config.CategoryRule) string {
	folded := make([]string, len(matched))
	for i, kw := range matched {
		folded[i] = strings.ToLower(kw)
	}

	for _, rule := range rules {
		for _, trigger := range rule.Triggers {
			t := strings.ToLower(trigger)
			for _, kw := range folded {
				if strings.Contains(kw, t) {
					return rule.Name
				}
			}
		}
	}
	return config.FallbackCategory
}
