package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgpdata/chielect/vintage"
)

const boundaryFixture = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"ward": 3, "precinct": 7, "shape_area": 120.5},
			"geometry": {"type": "Polygon", "coordinates": [[[-87.65, 41.88], [-87.64, 41.88], [-87.64, 41.89], [-87.65, 41.88]]]}
		},
		{
			"type": "Feature",
			"properties": {"ward": "48", "precinct": "101"},
			"geometry": {"type": "MultiPolygon", "coordinates": [[[[-87.66, 41.97], [-87.65, 41.97], [-87.65, 41.98], [-87.66, 41.97]]]]}
		}
	]
}`

func TestInspectGeoJSONData(t *testing.T) {
	info, err := InspectGeoJSONData([]byte(boundaryFixture))
	require.NoError(t, err)

	assert.Equal(t, "FeatureCollection", info.Type)
	assert.Equal(t, "Polygon", info.GeometryType)
	assert.Equal(t, 2, info.FeatureCount)
	assert.Equal(t, []string{"precinct", "shape_area", "ward"}, info.PropertyKeys)

	t.Run("rejects bare geometry documents", func(t *testing.T) {
		_, err := InspectGeoJSONData([]byte(`{"type": "Polygon", "coordinates": []}`))
		assert.Error(t, err)
	})

	t.Run("rejects unparseable documents", func(t *testing.T) {
		_, err := InspectGeoJSONData([]byte(`not json`))
		assert.Error(t, err)
	})
}

func TestExtractBoundaries(t *testing.T) {
	v, err := vintage.Default().ByID("2013")
	require.NoError(t, err)

	t.Run("normalizes mixed numeric and string properties", func(t *testing.T) {
		fc, err := decodeFeatureCollection([]byte(boundaryFixture))
		require.NoError(t, err)

		records, report, err := ExtractBoundaries(fc, v)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "03007", records[0].PrecinctID)
		assert.Equal(t, "48101", records[1].PrecinctID)
		assert.True(t, strings.HasPrefix(records[0].WKT, "POLYGON"))
		assert.True(t, strings.HasPrefix(records[1].WKT, "MULTIPOLYGON"))
		assert.Equal(t, 2, report.Features)
		assert.Zero(t, report.DuplicatesDropped)
	})

	t.Run("placeholder repairs and duplicate drop", func(t *testing.T) {
		doc := `{
			"type": "FeatureCollection",
			"features": [
				{"type": "Feature", "properties": {"ward": 3, "precinct": 7},
				 "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}},
				{"type": "Feature", "properties": {"ward": 3, "precinct": 7},
				 "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}},
				{"type": "Feature", "properties": {"ward": "", "precinct": ""},
				 "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}},
				{"type": "Feature", "properties": {"ward": 0, "precinct": 0},
				 "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}}
			]
		}`
		fc, err := decodeFeatureCollection([]byte(doc))
		require.NoError(t, err)

		records, report, err := ExtractBoundaries(fc, v)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "03007", records[0].PrecinctID)
		assert.Equal(t, "GEN001", records[1].PrecinctID)
		assert.Equal(t, "ZERO001", records[2].PrecinctID)
		assert.Equal(t, 1, report.DuplicatesDropped)
		assert.Equal(t, []string{"03007"}, report.DuplicateKeys)
	})

	t.Run("unparseable identity halts the file", func(t *testing.T) {
		doc := `{
			"type": "FeatureCollection",
			"features": [
				{"type": "Feature", "properties": {"ward": "north", "precinct": "x"},
				 "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}}
			]
		}`
		fc, err := decodeFeatureCollection([]byte(doc))
		require.NoError(t, err)

		_, _, err = ExtractBoundaries(fc, v)
		require.Error(t, err)
	})
}

func TestCheckDuplicatesFixture(t *testing.T) {
	v, err := vintage.Default().ByID("2013")
	require.NoError(t, err)

	fc, err := decodeFeatureCollection([]byte(boundaryFixture))
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, f := range fc.Features {
		key, err := featureKey(f, v)
		require.NoError(t, err)
		counts[key.String()]++
	}
	assert.Equal(t, map[string]int{"03007": 1, "48101": 1}, counts)
}
