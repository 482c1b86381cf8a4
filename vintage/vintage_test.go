package vintage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	t.Run("three boundary eras", func(t *testing.T) {
		assert.Len(t, cfg.Vintages, 3)
	})

	t.Run("year selection", func(t *testing.T) {
		v, err := cfg.ForYear(2011)
		require.NoError(t, err)
		assert.Equal(t, "2010", v.ID)

		v, err = cfg.ForYear(2019)
		require.NoError(t, err)
		assert.Equal(t, "2013", v.ID)

		v, err = cfg.ForYear(2026)
		require.NoError(t, err)
		assert.Equal(t, "2023", v.ID)

		_, err = cfg.ForYear(2008)
		assert.Error(t, err)
	})

	t.Run("2023 era uses combined id", func(t *testing.T) {
		v, err := cfg.ByID("2023")
		require.NoError(t, err)
		assert.True(t, v.Combined())
		assert.Equal(t, 2, v.Split.WardWidth)
	})
}

func TestParse(t *testing.T) {
	t.Run("override file", func(t *testing.T) {
		cfg, err := Parse([]byte(`
vintages:
  - id: "legacy"
    label: "pre-consolidation exports"
    valid_from: 2000
    valid_to: 2009
    combined_field: "PrecinctID"
    split:
      delimiter: "-"
    header_renames:
      "": "id"
`))
		require.NoError(t, err)
		require.Len(t, cfg.Vintages, 1)
		v := cfg.Vintages[0]
		assert.True(t, v.Combined())
		assert.Equal(t, "-", v.Split.Delimiter)
		assert.Equal(t, "id", v.HeaderRenames[""])
		assert.True(t, v.Covers(2004))
		assert.False(t, v.Covers(2010))
	})

	t.Run("combined field without split rule rejected", func(t *testing.T) {
		_, err := Parse([]byte(`
vintages:
  - id: "bad"
    valid_from: 2000
    combined_field: "precinct_id"
`))
		assert.Error(t, err)
	})

	t.Run("overlapping ranges rejected", func(t *testing.T) {
		_, err := Parse([]byte(`
vintages:
  - id: "a"
    valid_from: 2000
    valid_to: 2010
    ward_field: w
    precinct_field: p
  - id: "b"
    valid_from: 2010
    ward_field: w
    precinct_field: p
`))
		assert.Error(t, err)
	})

	t.Run("missing precinct field rejected", func(t *testing.T) {
		_, err := Parse([]byte(`
vintages:
  - id: "a"
    valid_from: 2000
    ward_field: w
`))
		assert.Error(t, err)
	})
}
