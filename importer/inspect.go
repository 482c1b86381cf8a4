package importer

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/cgpdata/chielect/vintage"
)

// GeoJSONInfo is the per-file diagnostic report used to verify schema
// consistency across boundary vintages before import: the collection
// type, the property names on the first feature, and the feature
// count.
type GeoJSONInfo struct {
	File         string
	Type         string
	GeometryType string
	PropertyKeys []string
	FeatureCount int
}

// InspectGeoJSON reports on one boundary file without touching the
// database.
func InspectGeoJSON(path string) (*GeoJSONInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	info, err := InspectGeoJSONData(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	info.File = path
	return info, nil
}

// InspectGeoJSONData inspects an already-loaded GeoJSON document.
func InspectGeoJSONData(data []byte) (*GeoJSONInfo, error) {
	fc, err := decodeFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	info := &GeoJSONInfo{
		Type:         "FeatureCollection",
		FeatureCount: len(fc.Features),
	}
	if len(fc.Features) > 0 {
		first := fc.Features[0]
		info.PropertyKeys = propertyKeys(first)
		if first.Geometry != nil {
			info.GeometryType = geometryTypeName(first.Geometry)
		}
	}
	return info, nil
}

// RenderInspection prints the diagnostic table for a set of boundary
// files so property conventions can be compared side by side.
func RenderInspection(w io.Writer, infos []*GeoJSONInfo) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Type", "Geometry", "Features", "Properties"})

	for _, info := range infos {
		table.Append([]string{
			info.File,
			info.Type,
			info.GeometryType,
			strconv.Itoa(info.FeatureCount),
			strings.Join(info.PropertyKeys, ", "),
		})
	}

	table.Render()
}

// DuplicateReport lists precinct keys that appear on more than one
// feature in a boundary file.
type DuplicateReport struct {
	File       string
	Features   int
	Duplicates map[string]int
}

// HasDuplicates reports whether any key repeats.
func (r *DuplicateReport) HasDuplicates() bool {
	return len(r.Duplicates) > 0
}

// CheckDuplicates normalizes every feature's precinct identity and
// counts repeats. A duplicate inside one vintage breaks the one-
// boundary-per-precinct join property, so this runs before import.
func CheckDuplicates(path string, v *vintage.Vintage) (*DuplicateReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	fc, err := decodeFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	report := &DuplicateReport{
		File:       path,
		Features:   len(fc.Features),
		Duplicates: make(map[string]int),
	}

	// Placeholder repairs run here too, so features with empty or
	// all-zero identifiers get distinct keys instead of erroring out.
	scratch := &BoundaryReport{}
	counts := make(map[string]int)
	for i, f := range fc.Features {
		key, err := boundaryID(f, v, scratch)
		if err != nil {
			return nil, fmt.Errorf("%s feature %d: %w", path, i, err)
		}
		counts[key]++
	}
	for key, n := range counts {
		if n > 1 {
			report.Duplicates[key] = n
		}
	}
	return report, nil
}

// RenderDuplicateReport prints the duplicate table.
func RenderDuplicateReport(w io.Writer, report *DuplicateReport) {
	if !report.HasDuplicates() {
		fmt.Fprintf(w, "%s: no duplicate precinct IDs in %d features\n",
			report.File, report.Features)
		return
	}

	fmt.Fprintf(w, "%s: found duplicate precinct IDs\n", report.File)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Precinct ID", "Count"})
	for key, n := range report.Duplicates {
		table.Append([]string{key, strconv.Itoa(n)})
	}
	table.Render()
}
