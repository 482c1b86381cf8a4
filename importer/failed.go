package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SaveFailedRows writes rows that could not be inserted to a
// timestamped CSV under failed_imports/, with the source row number
// and failure reason appended, so the operator can repair and re-run.
func SaveFailedRows(sourceFile string, failed []FailedRow) (string, error) {
	if len(failed) == 0 {
		return "", nil
	}

	failedDir := "failed_imports"
	if err := os.MkdirAll(failedDir, 0755); err != nil {
		return "", fmt.Errorf("error creating failed_imports directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	base := filepath.Base(sourceFile)
	outPath := filepath.Join(failedDir, fmt.Sprintf("failed_%s_%s.csv", base, timestamp))

	file, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("error creating failed rows file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"row_number", "precinct_id", "reason", "row_data"}); err != nil {
		return "", fmt.Errorf("error writing headers: %w", err)
	}

	for _, f := range failed {
		record := []string{
			strconv.Itoa(f.RowNumber),
			f.PrecinctID,
			f.FailReason,
			fmt.Sprintf("%v", f.RowData),
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("error writing record: %w", err)
		}
	}

	return outPath, nil
}
