package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/cgpdata/chielect/precinct"
	"github.com/cgpdata/chielect/vintage"
)

// GeometryImportConfig holds the configuration for one boundary file
// import. Each boundary vintage is loaded as an independent batch;
// re-importing a vintage replaces its previous rows.
type GeometryImportConfig struct {
	SourceFile    string
	ValidFromYear int
	ValidToYear   int // 0 while the boundaries are still current
	Vintage       *vintage.Vintage
}

// BoundaryRecord is one precinct polygon ready for insertion.
type BoundaryRecord struct {
	PrecinctID string
	WKT        string
}

// BoundaryReport summarizes the repairs applied while extracting
// boundary records, mirroring what the operator needs to eyeball
// before trusting a vintage.
type BoundaryReport struct {
	Features          int
	Generated         int // empty identifiers replaced with GENnnn
	Zeroed            int // all-zero identifiers replaced with ZEROnnn
	DuplicatesDropped int
	DuplicateKeys     []string
}

// decodeFeatureCollection parses a GeoJSON document and requires the
// FeatureCollection envelope the boundary exports use.
func decodeFeatureCollection(data []byte) (*geojson.FeatureCollection, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("error parsing GeoJSON: %w", err)
	}
	if envelope.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unsupported GeoJSON type: %s", envelope.Type)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("error decoding feature collection: %w", err)
	}
	return &fc, nil
}

// propString renders a GeoJSON property value for normalization.
// Numeric properties arrive as float64 from the JSON decoder.
func propString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// featureKey normalizes one feature's precinct identity according to
// the vintage's property convention.
func featureKey(f *geojson.Feature, v *vintage.Vintage) (precinct.Key, error) {
	if v.Combined() {
		return normalizeVintageKey(propString(f.Properties[v.CombinedField]), v)
	}
	return precinct.Normalize(
		propString(f.Properties[v.WardField]),
		propString(f.Properties[v.PrecinctField]),
	)
}

// ExtractBoundaries normalizes every feature in the collection into
// insertable records. Empty identifiers get GENnnn placeholders and
// all-zero identifiers get ZEROnnn, per the documented repair rules;
// remaining duplicates are dropped keep-first and reported. Any other
// unparseable identity halts the file.
func ExtractBoundaries(fc *geojson.FeatureCollection, v *vintage.Vintage) ([]BoundaryRecord, *BoundaryReport, error) {
	report := &BoundaryReport{Features: len(fc.Features)}
	records := make([]BoundaryRecord, 0, len(fc.Features))
	seen := make(map[string]bool)

	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, nil, fmt.Errorf("feature %d has no geometry", i)
		}

		id, err := boundaryID(f, v, report)
		if err != nil {
			return nil, nil, fmt.Errorf("feature %d: %w", i, err)
		}

		if seen[id] {
			report.DuplicatesDropped++
			report.DuplicateKeys = append(report.DuplicateKeys, id)
			continue
		}
		seen[id] = true

		text, err := wkt.Marshal(f.Geometry)
		if err != nil {
			return nil, nil, fmt.Errorf("feature %d (%s): error encoding geometry: %w", i, id, err)
		}
		records = append(records, BoundaryRecord{PrecinctID: id, WKT: text})
	}

	return records, report, nil
}

func boundaryID(f *geojson.Feature, v *vintage.Vintage, report *BoundaryReport) (string, error) {
	var raw string
	if v.Combined() {
		raw = strings.TrimSpace(propString(f.Properties[v.CombinedField]))
	} else {
		raw = strings.TrimSpace(propString(f.Properties[v.WardField])) +
			strings.TrimSpace(propString(f.Properties[v.PrecinctField]))
	}

	switch {
	case raw == "":
		report.Generated++
		return fmt.Sprintf("GEN%03d", report.Generated), nil
	case isDigits(raw) && strings.Trim(raw, "0") == "":
		report.Zeroed++
		return fmt.Sprintf("ZERO%03d", report.Zeroed), nil
	}

	key, err := featureKey(f, v)
	if err != nil {
		return "", err
	}
	return key.String(), nil
}

// ImportGeometries loads one boundary GeoJSON file into
// precinct_geometries, replacing any previous rows for the same
// valid_from_year.
func ImportGeometries(ctx context.Context, db *sql.DB, config GeometryImportConfig) error {
	if config.Vintage == nil {
		return fmt.Errorf("boundary import requires a vintage")
	}

	data, err := os.ReadFile(config.SourceFile)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", config.SourceFile, err)
	}

	fc, err := decodeFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("%s: %w", config.SourceFile, err)
	}

	records, report, err := ExtractBoundaries(fc, config.Vintage)
	if err != nil {
		return fmt.Errorf("%s: %w", config.SourceFile, err)
	}
	logBoundaryReport(config.SourceFile, report)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	nextID, err := nextSequenceValue(tx, "precinct_geometry_id")
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM precinct_geometries WHERE valid_from_year = $1`, config.ValidFromYear)
	if err != nil {
		return fmt.Errorf("error clearing previous vintage rows: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("%s: replaced %d existing rows for year %d",
			config.SourceFile, n, config.ValidFromYear)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO precinct_geometries (
			precinct_geometry_id, precinct_id, valid_from_year,
			valid_to_year, source_file, geom
		) VALUES ($1, $2, $3, $4, $5, ST_GeomFromText($6, 4326))`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	validTo := sql.NullInt64{}
	if config.ValidToYear != 0 {
		validTo = sql.NullInt64{Int64: int64(config.ValidToYear), Valid: true}
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := stmt.Exec(nextID+i, rec.PrecinctID, config.ValidFromYear,
			validTo, config.SourceFile, rec.WKT)
		if err != nil {
			return fmt.Errorf("error inserting %s: %w", rec.PrecinctID, err)
		}
	}

	if err := updateSequenceValue(tx, "precinct_geometry_id", nextID+len(records)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	log.Printf("%s: imported %d precinct boundaries for %d-%s",
		config.SourceFile, len(records), config.ValidFromYear, validToLabel(config.ValidToYear))
	return nil
}

func validToLabel(year int) string {
	if year == 0 {
		return "present"
	}
	return strconv.Itoa(year)
}

func logBoundaryReport(source string, report *BoundaryReport) {
	log.Printf("%s: %d features", source, report.Features)
	if report.Generated > 0 {
		log.Printf("Warning: %d features had empty precinct IDs, assigned GEN placeholders", report.Generated)
	}
	if report.Zeroed > 0 {
		log.Printf("Warning: %d features had all-zero precinct IDs, assigned ZERO placeholders", report.Zeroed)
	}
	if report.DuplicatesDropped > 0 {
		sample := report.DuplicateKeys
		if len(sample) > 5 {
			sample = sample[:5]
		}
		log.Printf("Warning: dropped %d duplicate precinct IDs (sample: %s)",
			report.DuplicatesDropped, strings.Join(sample, ", "))
	}
}

// geometryTypeName names a decoded geometry for diagnostics.
func geometryTypeName(g geom.T) string {
	switch g.(type) {
	case *geom.Point:
		return "Point"
	case *geom.MultiPoint:
		return "MultiPoint"
	case *geom.LineString:
		return "LineString"
	case *geom.MultiLineString:
		return "MultiLineString"
	case *geom.Polygon:
		return "Polygon"
	case *geom.MultiPolygon:
		return "MultiPolygon"
	case *geom.GeometryCollection:
		return "GeometryCollection"
	default:
		return fmt.Sprintf("%T", g)
	}
}

// propertyKeys returns the sorted property names of a feature.
func propertyKeys(f *geojson.Feature) []string {
	keys := make([]string, 0, len(f.Properties))
	for k := range f.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
