package models

import "database/sql"

// ResultRow represents one row of the denormalized election_results
// table: a single voting option's tally for one precinct in one
// contest. Rows are written once at import time and never updated.
type ResultRow struct {
	ResultID      int             `db:"result_id" json:"result_id"`
	Year          int             `db:"year" json:"year"`
	ElectionDate  sql.NullString  `db:"election_date" json:"election_date,omitempty"`
	ElectionID    int             `db:"election_id" json:"election_id"`
	ContestID     int             `db:"contest_id" json:"contest_id"`
	ContestName   sql.NullString  `db:"contest_name" json:"contest_name,omitempty"`
	PrecinctID    string          `db:"precinct_id" json:"precinct_id"`
	Ward          sql.NullString  `db:"ward" json:"ward,omitempty"`
	Precinct      sql.NullString  `db:"precinct" json:"precinct,omitempty"`
	TotalVotes    sql.NullInt64   `db:"total_votes" json:"total_votes,omitempty"`
	OptionName    string          `db:"option_name" json:"option_name"`
	OptionVotes   int             `db:"option_votes" json:"option_votes"`
	OptionPercent sql.NullFloat64 `db:"option_percent" json:"option_percent,omitempty"`
}
