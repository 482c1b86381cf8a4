package migrations

import (
	"database/sql"
	"fmt"
)

// InitSchema creates the tables and views the loader writes to. All
// statements are idempotent so every startup can run them.
func InitSchema(db *sql.DB) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"postgis extension", `CREATE EXTENSION IF NOT EXISTS postgis`},
		{"election_results", `
			CREATE TABLE IF NOT EXISTS election_results (
				result_id      INTEGER PRIMARY KEY,
				year           INTEGER,
				election_date  VARCHAR,
				election_id    INTEGER,
				contest_id     INTEGER,
				contest_name   VARCHAR,
				precinct_id    VARCHAR,
				ward           VARCHAR,
				precinct       VARCHAR,
				total_votes    INTEGER,
				option_name    VARCHAR,
				option_votes   INTEGER,
				option_percent DOUBLE PRECISION
			)`},
		{"precinct_geometries", `
			CREATE TABLE IF NOT EXISTS precinct_geometries (
				precinct_geometry_id INTEGER PRIMARY KEY,
				precinct_id          VARCHAR NOT NULL,
				valid_from_year      INTEGER NOT NULL,
				valid_to_year        INTEGER,
				source_file          VARCHAR,
				geom                 geometry(Geometry, 4326),
				UNIQUE (precinct_id, valid_from_year)
			)`},
		{"sequence_values", `
			CREATE TABLE IF NOT EXISTS sequence_values (
				name       VARCHAR PRIMARY KEY,
				next_value INTEGER
			)`},
		{"result_id sequence seed", `
			INSERT INTO sequence_values (name, next_value)
			SELECT 'result_id', 1
			WHERE NOT EXISTS (SELECT 1 FROM sequence_values WHERE name = 'result_id')`},
		{"geometry_id sequence seed", `
			INSERT INTO sequence_values (name, next_value)
			SELECT 'precinct_geometry_id', 1
			WHERE NOT EXISTS (SELECT 1 FROM sequence_values WHERE name = 'precinct_geometry_id')`},
		{"election_summary view", `
			CREATE OR REPLACE VIEW election_summary AS
			SELECT election_id, year, election_date,
			       COUNT(DISTINCT contest_id) AS contests,
			       COUNT(DISTINCT precinct_id) AS precincts,
			       COUNT(*) AS result_rows
			FROM election_results
			GROUP BY election_id, year, election_date`},
		{"results_by_ward view", `
			CREATE OR REPLACE VIEW results_by_ward AS
			SELECT year, contest_id, contest_name,
			       SUBSTRING(precinct_id FROM 1 FOR 2) AS ward,
			       option_name,
			       SUM(option_votes) AS option_votes
			FROM election_results
			GROUP BY year, contest_id, contest_name,
			         SUBSTRING(precinct_id FROM 1 FOR 2), option_name`},
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt.sql); err != nil {
			return fmt.Errorf("error creating %s: %w", stmt.name, err)
		}
	}
	return nil
}

// VerifySchema checks that the required tables exist without creating
// anything, for read-only sessions against an existing database.
func VerifySchema(db *sql.DB) error {
	tables := []string{"election_results", "precinct_geometries", "sequence_values"}

	for _, table := range tables {
		var exists bool
		query := `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public'
				AND table_name = $1
			)`

		if err := db.QueryRow(query, table).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("required table %s does not exist", table)
		}
	}
	return nil
}
