package precinct

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		key, err := Normalize("3", "7")
		require.NoError(t, err)
		assert.Equal(t, Key("03007"), key)
		assert.Equal(t, 3, key.Ward())
		assert.Equal(t, 7, key.Precinct())
		assert.Equal(t, "Precinct 007 Ward 03", key.Display())
	})

	t.Run("upper bounds", func(t *testing.T) {
		key, err := Normalize("50", "999")
		require.NoError(t, err)
		assert.Equal(t, "50999", key.String())
	})

	t.Run("decorated inputs", func(t *testing.T) {
		for _, tc := range []struct {
			ward, precinct string
			want           Key
		}{
			{"Ward 3", "7", "03007"},
			{"03", "007", "03007"},
			{" 12 ", "Precinct 34", "12034"},
			{"WARD 48", "101", "48101"},
		} {
			key, err := Normalize(tc.ward, tc.precinct)
			require.NoError(t, err, "ward=%q precinct=%q", tc.ward, tc.precinct)
			assert.Equal(t, tc.want, key)
		}
	})

	t.Run("numeric and string inputs agree", func(t *testing.T) {
		for ward := MinWard; ward <= MaxWard; ward += 7 {
			for prec := MinPrecinct; prec <= MaxPrecinct; prec += 131 {
				fromInts, err := NormalizeInts(ward, prec)
				require.NoError(t, err)
				fromStrings, err := Normalize(fmt.Sprintf("%d", ward), fmt.Sprintf("%d", prec))
				require.NoError(t, err)
				assert.Equal(t, fromInts, fromStrings)
				assert.Len(t, fromInts.String(), KeyLength)
				assert.Equal(t, ward, fromInts.Ward())
				assert.Equal(t, prec, fromInts.Precinct())
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := Normalize("7", "42")
		require.NoError(t, err)
		b, err := Normalize("7", "42")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		for _, tc := range []struct{ ward, precinct string }{
			{"Ward 0", "5"},  // ward below range
			{"51", "5"},      // ward above range
			{"12", "abc"},    // non-numeric precinct
			{"12", "0"},      // precinct below range
			{"12", "1000"},   // precinct above range
			{"", "5"},        // empty ward
			{"North", "5"},   // no digits at all
		} {
			_, err := Normalize(tc.ward, tc.precinct)
			require.Error(t, err, "ward=%q precinct=%q", tc.ward, tc.precinct)
			var fe *FormatError
			assert.True(t, errors.As(err, &fe), "want *FormatError, got %T", err)
		}
	})
}

func TestParseKey(t *testing.T) {
	t.Run("already canonical", func(t *testing.T) {
		key, err := ParseKey("03007")
		require.NoError(t, err)
		assert.Equal(t, Key("03007"), key)
	})

	t.Run("pads dropped leading zero", func(t *testing.T) {
		key, err := ParseKey("3007")
		require.NoError(t, err)
		assert.Equal(t, Key("03007"), key)
	})

	t.Run("rejects bad keys", func(t *testing.T) {
		for _, raw := range []string{"", "abc12", "123456", "00000", "51001"} {
			_, err := ParseKey(raw)
			var fe *FormatError
			require.Error(t, err, "raw=%q", raw)
			assert.True(t, errors.As(err, &fe))
		}
	})
}

func TestSplitRule(t *testing.T) {
	t.Run("delimiter", func(t *testing.T) {
		rule := SplitRule{Delimiter: "-"}
		key, err := NormalizeCombined("3-7", rule)
		require.NoError(t, err)
		assert.Equal(t, Key("03007"), key)
	})

	t.Run("fixed width", func(t *testing.T) {
		rule := SplitRule{WardWidth: 2}
		key, err := NormalizeCombined("03007", rule)
		require.NoError(t, err)
		assert.Equal(t, Key("03007"), key)
	})

	t.Run("delimiter falls back to width", func(t *testing.T) {
		rule := SplitRule{Delimiter: "-", WardWidth: 2}
		key, err := NormalizeCombined("48101", rule)
		require.NoError(t, err)
		assert.Equal(t, Key("48101"), key)
	})

	t.Run("no rule is an error not a guess", func(t *testing.T) {
		_, err := NormalizeCombined("03007", SplitRule{})
		var fe *FormatError
		require.Error(t, err)
		assert.True(t, errors.As(err, &fe))
	})

	t.Run("too short for width", func(t *testing.T) {
		_, err := NormalizeCombined("07", SplitRule{WardWidth: 2})
		require.Error(t, err)
	})
}
