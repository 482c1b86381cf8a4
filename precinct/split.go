package precinct

import "strings"

// SplitRule describes how a combined ward+precinct identifier is taken
// apart. Source vintages disagree on the format, so the rule is always
// supplied by the caller; a raw value with no delimiter and no
// configured width is an error, never a guess.
type SplitRule struct {
	// Delimiter splits at its first occurrence when set, e.g. "-" for
	// "3-7" or "/" for "03/007".
	Delimiter string `yaml:"delimiter,omitempty"`
	// WardWidth takes the leading N characters as the ward when no
	// delimiter applies, e.g. 2 for fused "03007".
	WardWidth int `yaml:"ward_width,omitempty"`
}

// IsZero reports whether no split behavior is configured.
func (r SplitRule) IsZero() bool {
	return r.Delimiter == "" && r.WardWidth == 0
}

// Split separates a combined identifier into raw ward and precinct
// parts. The parts still go through Normalize afterwards.
func (r SplitRule) Split(raw string) (ward, precinct string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", &FormatError{Field: "key", Raw: raw, Reason: "empty"}
	}
	if r.Delimiter != "" {
		if i := strings.Index(raw, r.Delimiter); i >= 0 {
			return raw[:i], raw[i+len(r.Delimiter):], nil
		}
		// Fall through to fixed width when configured; some files mix
		// delimited and fused values within one vintage.
	}
	if r.WardWidth > 0 {
		if len(raw) <= r.WardWidth {
			return "", "", &FormatError{Field: "key", Raw: raw,
				Reason: "shorter than configured ward width"}
		}
		return raw[:r.WardWidth], raw[r.WardWidth:], nil
	}
	return "", "", &FormatError{Field: "key", Raw: raw,
		Reason: "no split rule matches combined identifier"}
}

// NormalizeCombined normalizes a combined ward+precinct identifier
// using the vintage-specific rule.
func NormalizeCombined(raw string, rule SplitRule) (Key, error) {
	ward, precinct, err := rule.Split(raw)
	if err != nil {
		return "", err
	}
	return Normalize(ward, precinct)
}
