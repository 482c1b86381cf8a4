package models

import "database/sql"

// ElectionMeta carries the per-directory metadata attached to every
// result row from one export: which election it was and when.
type ElectionMeta struct {
	ElectionID   int            `db:"election_id" json:"election_id"`
	Year         int            `db:"year" json:"year"`
	ElectionDate sql.NullString `db:"election_date" json:"election_date,omitempty"`
	Contests     map[int]string `db:"-" json:"contests,omitempty"`
}
