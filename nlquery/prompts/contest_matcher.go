package prompts

import (
	"strings"
)

// ContestMatcher maps question wording to SQL LIKE patterns over
// contest_name. Contest names drift across years ("Mayor" vs "Mayor,
// City of Chicago"), so matching goes through category keywords rather
// than exact names.
type ContestMatcher struct {
	categories map[string][]string
}

// NewContestMatcher creates a matcher seeded with the contest
// categories appearing in the historical exports.
func NewContestMatcher() *ContestMatcher {
	return &ContestMatcher{
		categories: map[string][]string{
			"mayor":        {"mayor", "mayoral"},
			"alderman":     {"alderman", "alderperson", "aldermanic", "city council"},
			"clerk":        {"city clerk", "clerk"},
			"treasurer":    {"treasurer"},
			"president":    {"president", "presidential"},
			"senator":      {"senator", "senate"},
			"governor":     {"governor", "gubernatorial"},
			"judge":        {"judge", "judicial", "retention"},
			"referendum":   {"referendum", "referenda", "ballot question", "proposition"},
			"committeeman": {"committeeman", "committeeperson", "ward committee"},
		},
	}
}

// MatchPatterns returns SQL LIKE patterns for contests the question
// seems to ask about. An empty result means the question is not
// contest-specific.
func (cm *ContestMatcher) MatchPatterns(query string) []string {
	query = strings.ToLower(query)
	var patterns []string
	seen := make(map[string]bool)

	add := func(pattern string) {
		if !seen[pattern] {
			patterns = append(patterns, pattern)
			seen[pattern] = true
		}
	}

	for category, keywords := range cm.categories {
		for _, keyword := range keywords {
			if strings.Contains(query, keyword) {
				add("'%" + category + "%'")
				break
			}
		}
	}

	return patterns
}
