package importer

import (
	"strings"
	"unicode"

	"github.com/cgpdata/chielect/precinct"
	"github.com/cgpdata/chielect/vintage"
)

// normalizeVintageKey normalizes a combined ward+precinct value. Fully
// numeric values are treated as a fused key and re-padded (sources
// routinely drop the leading ward zero, "1001" for "01001"); anything
// else goes through the vintage's split rule.
func normalizeVintageKey(raw string, v *vintage.Vintage) (precinct.Key, error) {
	raw = strings.TrimSpace(raw)
	if isDigits(raw) {
		return precinct.ParseKey(raw)
	}
	return precinct.NormalizeCombined(raw, v.Split)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
