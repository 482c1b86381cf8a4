// Package importer loads election result CSVs and precinct boundary
// GeoJSON files into the database, stamping every row with the
// canonical precinct key so the two datasets join on equality.
package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cgpdata/chielect/models"
	"github.com/cgpdata/chielect/precinct"
	"github.com/cgpdata/chielect/vintage"
)

// DefaultBatchSize bounds how many result rows are logged per progress
// line during an import.
const DefaultBatchSize = 1000

// ImportConfig holds the configuration for one election result import.
// One config covers one contest export file.
type ImportConfig struct {
	ElectionID   int
	ContestID    int
	Year         int
	ElectionDate string
	ContestName  string
	SourceFile   string
	BatchSize    int
	Vintage      *vintage.Vintage
}

// ImportError wraps a database failure with enough context to chase
// the offending row down in the source file.
type ImportError struct {
	Code    string
	Message string
	Context map[string]string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// reserved header names that never count as voting options.
const percentSuffix = " Percent"

// columnLayout is the classification of a result CSV's headers.
type columnLayout struct {
	precinctID int
	combined   int
	ward       int
	precinct   int
	total      int
	registered int
	ballots    int
	turnout    int
	options    []optionColumn
}

type optionColumn struct {
	name    string
	votes   int
	percent int // -1 when the export carries no percentage column
}

func (l columnLayout) isTurnoutFile() bool {
	return l.registered >= 0 && l.turnout >= 0
}

// applyHeaderRenames rewrites headers per the vintage configuration
// before classification. The one documented repair is assigning the
// placeholder name "id" to an unlabeled column; it lives in config so
// nothing is inferred silently per file.
func applyHeaderRenames(headers []string, v *vintage.Vintage) []string {
	if v == nil || len(v.HeaderRenames) == 0 {
		return headers
	}
	out := make([]string, len(headers))
	for i, h := range headers {
		if renamed, ok := v.HeaderRenames[strings.TrimSpace(h)]; ok {
			out[i] = renamed
			continue
		}
		out[i] = h
	}
	return out
}

// classifyColumns sorts headers into identity columns, tally columns
// and voting option columns. Identity and tally columns match by exact
// name only, case-insensitively; a candidate column like "Edward M.
// Burke" must stay an option. Option columns are whatever remains
// after the reserved names, excluding "<option> Percent" companions.
func classifyColumns(headers []string, v *vintage.Vintage) columnLayout {
	layout := columnLayout{
		precinctID: -1, combined: -1, ward: -1, precinct: -1,
		total: -1, registered: -1, ballots: -1, turnout: -1,
	}

	combinedField := ""
	if v != nil && v.Combined() {
		combinedField = strings.ToLower(v.CombinedField)
	}

	taken := make(map[int]bool)
	for i, h := range headers {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case combinedField != "" && name == combinedField:
			layout.combined = i
		case name == "precinct_id":
			layout.precinctID = i
		case name == "total":
			layout.total = i
		case name == "registered":
			layout.registered = i
		case name == "ballots":
			layout.ballots = i
		case name == "turnout":
			layout.turnout = i
		case name == "id" || name == "":
			// placeholder or still-unlabeled column, never a tally
		case name == "ward" && layout.ward < 0:
			layout.ward = i
		case name == "precinct" && layout.precinct < 0:
			layout.precinct = i
		default:
			continue
		}
		taken[i] = true
	}

	for i, h := range headers {
		if taken[i] {
			continue
		}
		name := strings.TrimSpace(h)
		if name == "" || strings.HasSuffix(name, percentSuffix) {
			continue
		}
		opt := optionColumn{name: name, votes: i, percent: -1}
		for j, other := range headers {
			if strings.TrimSpace(other) == name+percentSuffix {
				opt.percent = j
				break
			}
		}
		layout.options = append(layout.options, opt)
	}

	return layout
}

// rowKey computes the canonical key for one record. Preference order:
// the vintage's combined field, separate ward/precinct columns, then a
// pre-built precinct_id column.
func rowKey(layout columnLayout, record []string, v *vintage.Vintage) (precinct.Key, error) {
	field := func(idx int) string {
		if idx >= 0 && idx < len(record) {
			return record[idx]
		}
		return ""
	}

	switch {
	case layout.combined >= 0:
		return normalizeVintageKey(field(layout.combined), v)
	case layout.ward >= 0 && layout.precinct >= 0:
		return precinct.Normalize(field(layout.ward), field(layout.precinct))
	case layout.precinctID >= 0:
		return precinct.ParseKey(field(layout.precinctID))
	}
	return "", fmt.Errorf("no ward/precinct identity columns present")
}

// meltRecord turns one wide CSV record into long result rows, one per
// voting option. Registration/turnout exports become the two synthetic
// options "registered" and "ballots".
func meltRecord(layout columnLayout, record []string, cfg ImportConfig) ([]models.ResultRow, error) {
	key, err := rowKey(layout, record, cfg.Vintage)
	if err != nil {
		return nil, err
	}

	base := models.ResultRow{
		Year:       cfg.Year,
		ElectionID: cfg.ElectionID,
		ContestID:  cfg.ContestID,
		PrecinctID: key.String(),
	}
	if cfg.ElectionDate != "" {
		base.ElectionDate = sql.NullString{String: cfg.ElectionDate, Valid: true}
	}
	if cfg.ContestName != "" {
		base.ContestName = sql.NullString{String: cfg.ContestName, Valid: true}
	}
	if layout.ward >= 0 && layout.ward < len(record) {
		base.Ward = sql.NullString{String: strings.TrimSpace(record[layout.ward]), Valid: true}
	}
	if layout.precinct >= 0 && layout.precinct < len(record) {
		base.Precinct = sql.NullString{String: strings.TrimSpace(record[layout.precinct]), Valid: true}
	}

	cell := func(idx int) string {
		if idx >= 0 && idx < len(record) {
			return record[idx]
		}
		return ""
	}

	if layout.isTurnoutFile() {
		registered := base
		registered.OptionName = "registered"
		registered.OptionVotes = extractInt(cell(layout.registered))

		ballots := base
		ballots.OptionName = "ballots"
		ballots.OptionVotes = extractInt(cell(layout.ballots))
		if pct, ok := extractFloat(cell(layout.turnout)); ok {
			ballots.OptionPercent = sql.NullFloat64{Float64: pct, Valid: true}
		}
		return []models.ResultRow{registered, ballots}, nil
	}

	if len(layout.options) == 0 {
		return nil, fmt.Errorf("no voting option columns present")
	}

	if layout.total >= 0 {
		base.TotalVotes = sql.NullInt64{Int64: int64(extractInt(cell(layout.total))), Valid: true}
	}

	rows := make([]models.ResultRow, 0, len(layout.options))
	for _, opt := range layout.options {
		row := base
		row.OptionName = opt.name
		row.OptionVotes = extractInt(cell(opt.votes))
		if opt.percent >= 0 {
			if pct, ok := extractFloat(cell(opt.percent)); ok {
				row.OptionPercent = sql.NullFloat64{Float64: pct, Valid: true}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ElectionImporter runs one CSV import to completion inside a single
// transaction.
type ElectionImporter struct {
	db     *sql.DB
	config ImportConfig
	failed []FailedRow
}

// FailedRow records a source row that could not be inserted, for the
// operator report.
type FailedRow struct {
	RowNumber  int
	PrecinctID string
	FailReason string
	RowData    []string
}

func NewElectionImporter(db *sql.DB, config ImportConfig) *ElectionImporter {
	return &ElectionImporter{db: db, config: config}
}

// ImportElections reads one contest export and appends its rows to
// election_results.
func ImportElections(ctx context.Context, db *sql.DB, config ImportConfig, reader *csv.Reader) error {
	return NewElectionImporter(db, config).Run(ctx, reader)
}

func (ei *ElectionImporter) Run(ctx context.Context, reader *csv.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("error reading headers: %w", err)
	}
	headers = applyHeaderRenames(headers, ei.config.Vintage)

	layout := classifyColumns(headers, ei.config.Vintage)
	if layout.combined < 0 && (layout.ward < 0 || layout.precinct < 0) && layout.precinctID < 0 {
		return fmt.Errorf("%s: no ward/precinct identity columns in header %v",
			ei.config.SourceFile, headers)
	}
	if !layout.isTurnoutFile() && len(layout.options) == 0 {
		return fmt.Errorf("%s: no voting option columns in header %v",
			ei.config.SourceFile, headers)
	}

	tx, err := ei.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	nextID, err := nextSequenceValue(tx, "result_id")
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO election_results (
			result_id, year, election_date, election_id, contest_id,
			contest_name, precinct_id, ward, precinct, total_votes,
			option_name, option_votes, option_percent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	batchSize := ei.config.BatchSize
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}

	recordNum := 1 // header was row 1
	inserted := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%s row %d: %w", ei.config.SourceFile, recordNum+1, err)
		}
		recordNum++

		rows, err := meltRecord(layout, record, ei.config)
		if err != nil {
			// An unparseable precinct identity halts the whole file;
			// the pipeline is semi-manual and the operator fixes the
			// source rather than the importer guessing.
			return fmt.Errorf("%s row %d: %w", ei.config.SourceFile, recordNum, err)
		}

		for _, row := range rows {
			if err := ei.insertRow(tx, stmt, nextID+inserted, row); err != nil {
				ei.failed = append(ei.failed, FailedRow{
					RowNumber:  recordNum,
					PrecinctID: row.PrecinctID,
					FailReason: err.Error(),
					RowData:    record,
				})
				continue
			}
			inserted++
		}

		if inserted > 0 && inserted%batchSize == 0 {
			log.Printf("%s: %d rows inserted", ei.config.SourceFile, inserted)
		}
	}

	if err := updateSequenceValue(tx, "result_id", nextID+inserted); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	ei.printSummary(inserted)

	if len(ei.failed) > 0 {
		if path, err := SaveFailedRows(ei.config.SourceFile, ei.failed); err != nil {
			log.Printf("Warning: could not save failed row report: %v", err)
		} else {
			log.Printf("Failed rows saved to: %s", path)
		}
		return fmt.Errorf("import completed with %d failures", len(ei.failed))
	}
	return nil
}

// insertRow writes one result row under its own savepoint. Postgres
// aborts the whole transaction on the first failed statement, so the
// savepoint is what keeps a bad row from dragging every later row into
// the failure report.
func (ei *ElectionImporter) insertRow(tx *sql.Tx, stmt *sql.Stmt, id int, row models.ResultRow) error {
	if _, err := tx.Exec(`SAVEPOINT result_row`); err != nil {
		return fmt.Errorf("error creating savepoint: %w", err)
	}
	_, err := stmt.Exec(
		id, row.Year, row.ElectionDate, row.ElectionID, row.ContestID,
		row.ContestName, row.PrecinctID, row.Ward, row.Precinct,
		row.TotalVotes, row.OptionName, row.OptionVotes, row.OptionPercent,
	)
	if err != nil {
		if _, rbErr := tx.Exec(`ROLLBACK TO SAVEPOINT result_row`); rbErr != nil {
			return fmt.Errorf("error rolling back to savepoint: %w", rbErr)
		}
		return &ImportError{
			Code:    "INSERT_FAILED",
			Message: err.Error(),
			Context: map[string]string{"precinct_id": row.PrecinctID},
		}
	}
	if _, err := tx.Exec(`RELEASE SAVEPOINT result_row`); err != nil {
		return fmt.Errorf("error releasing savepoint: %w", err)
	}
	return nil
}

func (ei *ElectionImporter) printSummary(inserted int) {
	total := inserted + len(ei.failed)
	if total == 0 {
		log.Printf("%s: no result rows produced", ei.config.SourceFile)
		return
	}
	log.Printf("\nImport Summary for %s:", ei.config.SourceFile)
	log.Printf("Result Rows Written: %d (%.2f%%)",
		inserted, float64(inserted)/float64(total)*100)
	log.Printf("Failed Rows: %d (%.2f%%)",
		len(ei.failed), float64(len(ei.failed))/float64(total)*100)
}

func nextSequenceValue(tx *sql.Tx, name string) (int, error) {
	var next int
	err := tx.QueryRow(`SELECT next_value FROM sequence_values WHERE name = $1 FOR UPDATE`, name).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("error reading %s sequence: %w", name, err)
	}
	return next, nil
}

func updateSequenceValue(tx *sql.Tx, name string, value int) error {
	if _, err := tx.Exec(`UPDATE sequence_values SET next_value = $1 WHERE name = $2`, value, name); err != nil {
		return fmt.Errorf("error updating %s sequence: %w", name, err)
	}
	return nil
}
