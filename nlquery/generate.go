package nlquery

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cgpdata/chielect/nlquery/prompts"
)

// GenerateSQL is the offline fallback: it pattern-matches a handful of
// common question shapes against the results schema without calling
// the model.
func GenerateSQL(query string, builder *prompts.PromptBuilder) (string, error) {
	query = strings.ToLower(query)

	wantsTurnout := strings.Contains(query, "turnout") || strings.Contains(query, "ballots")
	wantsWard := strings.Contains(query, "ward") || strings.Contains(query, "by ward")

	matcher := prompts.NewContestMatcher()
	patterns := matcher.MatchPatterns(query)

	yearFilter := ""
	if year := findYear(query); year != "" {
		yearFilter = fmt.Sprintf("AND year = %s", year)
	}

	if wantsTurnout {
		if wantsWard {
			return fmt.Sprintf(`
			SELECT
				SUBSTRING(precinct_id FROM 1 FOR 2) AS ward,
				SUM(CASE WHEN option_name = 'ballots' THEN option_votes ELSE 0 END) AS ballots,
				SUM(CASE WHEN option_name = 'registered' THEN option_votes ELSE 0 END) AS registered
			FROM election_results
			WHERE option_name IN ('ballots', 'registered') %s
			GROUP BY ward
			ORDER BY ward;`, yearFilter), nil
		}
		return fmt.Sprintf(`
		SELECT
			year,
			SUM(CASE WHEN option_name = 'ballots' THEN option_votes ELSE 0 END) AS ballots,
			SUM(CASE WHEN option_name = 'registered' THEN option_votes ELSE 0 END) AS registered
		FROM election_results
		WHERE option_name IN ('ballots', 'registered') %s
		GROUP BY year
		ORDER BY year;`, yearFilter), nil
	}

	if len(patterns) > 0 {
		likes := make([]string, 0, len(patterns))
		for _, p := range patterns {
			likes = append(likes, fmt.Sprintf("LOWER(contest_name) LIKE %s", p))
		}
		return fmt.Sprintf(`
		SELECT
			contest_name,
			option_name,
			SUM(option_votes) AS total_votes
		FROM election_results
		WHERE (%s)
		  AND option_name NOT IN ('registered', 'ballots') %s
		GROUP BY contest_name, option_name
		ORDER BY contest_name, total_votes DESC;`, strings.Join(likes, " OR "), yearFilter), nil
	}

	return "", fmt.Errorf("could not generate SQL for query: %s", query)
}

// findYear returns the first plausible 4-digit election year in the
// question, or "".
func findYear(query string) string {
	runs := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	for _, run := range runs {
		if len(run) == 4 && (strings.HasPrefix(run, "19") || strings.HasPrefix(run, "20")) {
			return run
		}
	}
	return ""
}
