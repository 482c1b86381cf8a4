package models

import "database/sql"

// PrecinctGeometry represents one row of the precinct_geometries
// table: a boundary polygon for one precinct, valid over a range of
// election years. Each boundary vintage is an independent batch.
type PrecinctGeometry struct {
	PrecinctGeometryID int            `db:"precinct_geometry_id" json:"precinct_geometry_id"`
	PrecinctID         string         `db:"precinct_id" json:"precinct_id"`
	ValidFromYear      int            `db:"valid_from_year" json:"valid_from_year"`
	ValidToYear        sql.NullInt64  `db:"valid_to_year" json:"valid_to_year,omitempty"`
	GeometryWKT        string         `db:"geometry_wkt" json:"-"`
	SourceFile         sql.NullString `db:"source_file" json:"source_file,omitempty"`
}
