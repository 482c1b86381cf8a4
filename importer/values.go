package importer

import (
	"strconv"
	"strings"
	"unicode"
)

// extractInt pulls the first run of digits out of a tally cell and
// returns 0 when there is none. Historical exports carry thousands
// separators, stray percent signs and empty cells; tallies default to
// zero rather than failing the row.
func extractInt(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			s = s[start:i]
			start = 0
			break
		}
	}
	if start == -1 {
		return 0
	}
	if start != 0 {
		s = s[start:]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// extractFloat pulls a decimal number out of a percentage cell.
func extractFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	start, end := -1, -1
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' {
			if start == -1 {
				start = i
			}
			end = i + 1
			continue
		}
		if start != -1 {
			break
		}
	}
	if start == -1 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
