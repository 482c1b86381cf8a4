// Package precinct builds the canonical precinct identifier shared by
// election result rows and boundary geometries. The key is a 5-digit
// string: 2-digit zero-padded ward followed by 3-digit zero-padded
// precinct, so results and boundaries join on plain equality.
package precinct

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Valid ranges for Chicago wards and precincts.
const (
	MinWard     = 1
	MaxWard     = 50
	MinPrecinct = 1
	MaxPrecinct = 999
)

// KeyLength is the fixed width of a canonical key.
const KeyLength = 5

// Key is the canonical precinct identifier, e.g. "03007" for ward 3
// precinct 7.
type Key string

// Ward returns the ward component of the key.
func (k Key) Ward() int {
	w, _ := strconv.Atoi(string(k[:2]))
	return w
}

// Precinct returns the precinct component of the key.
func (k Key) Precinct() int {
	p, _ := strconv.Atoi(string(k[2:]))
	return p
}

func (k Key) String() string {
	return string(k)
}

// Display returns the human-readable form used in reports and logs,
// e.g. "Precinct 007 Ward 03".
func (k Key) Display() string {
	return fmt.Sprintf("Precinct %03d Ward %02d", k.Precinct(), k.Ward())
}

// FormatError reports a ward or precinct value that could not be parsed
// or fell outside the valid range. The pipeline is semi-manual: these
// surface to the operator for correction, they are never repaired
// automatically.
type FormatError struct {
	Field  string // "ward", "precinct" or "key"
	Raw    string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s value %q: %s", e.Field, e.Raw, e.Reason)
}

// Normalize converts raw ward and precinct field values into the
// canonical key. Inputs may carry decoration ("Ward 3", "03", stray
// whitespace); anything that does not reduce to an in-range integer is
// a *FormatError.
func Normalize(wardRaw, precinctRaw string) (Key, error) {
	ward, err := parseField("ward", wardRaw, MinWard, MaxWard)
	if err != nil {
		return "", err
	}
	precinct, err := parseField("precinct", precinctRaw, MinPrecinct, MaxPrecinct)
	if err != nil {
		return "", err
	}
	return Key(fmt.Sprintf("%02d%03d", ward, precinct)), nil
}

// NormalizeInts builds the key from already-numeric ward and precinct
// values, applying the same range checks as Normalize.
func NormalizeInts(ward, precinct int) (Key, error) {
	return Normalize(strconv.Itoa(ward), strconv.Itoa(precinct))
}

// ParseKey validates a pre-built precinct identifier as found in some
// source files ("precinct_id" columns, boundary properties). Values
// shorter than 5 digits are zero-padded first; 4-digit values are the
// common case of a dropped leading ward zero.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &FormatError{Field: "key", Raw: s, Reason: "empty"}
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return "", &FormatError{Field: "key", Raw: s, Reason: "not numeric"}
		}
	}
	if len(s) > KeyLength {
		return "", &FormatError{Field: "key", Raw: s, Reason: "longer than 5 digits"}
	}
	for len(s) < KeyLength {
		s = "0" + s
	}
	// Round-trip through Normalize so range checks apply.
	return Normalize(s[:2], s[2:])
}

// parseField strips non-numeric decoration and checks the range. The
// first run of digits is the value: "Ward 3" -> 3, "03" -> 3.
func parseField(field, raw string, min, max int) (int, error) {
	digits := firstDigitRun(raw)
	if digits == "" {
		return 0, &FormatError{Field: field, Raw: raw, Reason: "no numeric value"}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, &FormatError{Field: field, Raw: raw, Reason: "not an integer"}
	}
	if n < min || n > max {
		return 0, &FormatError{Field: field, Raw: raw,
			Reason: fmt.Sprintf("%d outside range %d-%d", n, min, max)}
	}
	return n, nil
}

func firstDigitRun(s string) string {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			return s[start:i]
		}
	}
	if start == -1 {
		return ""
	}
	return s[start:]
}
