package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One bad insert must roll back to its savepoint and leave the
// transaction usable for the rows that follow; only the bad row lands
// in the failure report.
func TestRunIsolatesFailedInserts(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT next_value FROM sequence_values").
		WillReturnRows(sqlmock.NewRows([]string{"next_value"}).AddRow(1))
	prep := mock.ExpectPrepare("INSERT INTO election_results")

	mock.ExpectExec("SAVEPOINT result_row").WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WillReturnError(fmt.Errorf("value too long for type character varying"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT result_row").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectExec("SAVEPOINT result_row").WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("RELEASE SAVEPOINT result_row").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectExec("UPDATE sequence_values").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	config := ImportConfig{
		ElectionID:  7,
		ContestID:   410,
		Year:        2019,
		ContestName: "Mayor",
		SourceFile:  "mayor.csv",
	}
	ei := NewElectionImporter(db, config)
	reader := csv.NewReader(strings.NewReader("ward,precinct,Yes\n3,7,10\n48,101,20\n"))

	err = ei.Run(context.Background(), reader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 failures")

	require.Len(t, ei.failed, 1)
	assert.Equal(t, 2, ei.failed[0].RowNumber)
	assert.Equal(t, "03007", ei.failed[0].PrecinctID)
	assert.Contains(t, ei.failed[0].FailReason, "value too long")

	assert.NoError(t, mock.ExpectationsWereMet())
}
