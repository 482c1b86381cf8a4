package migrations

import (
	"database/sql"
	"fmt"
)

// ResetTables drops everything the loader owns so a fresh import can
// start from scratch. Views go first, then tables in dependency order.
func ResetTables(db *sql.DB) error {
	drops := []string{
		`DROP VIEW IF EXISTS results_by_ward`,
		`DROP VIEW IF EXISTS election_summary`,
		`DROP TABLE IF EXISTS precinct_geometries`,
		`DROP TABLE IF EXISTS election_results`,
		`DROP TABLE IF EXISTS sequence_values`,
	}

	for _, stmt := range drops {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("error executing %q: %w", stmt, err)
		}
	}
	return nil
}
