package export

import (
	"encoding/csv"
	"fmt"
	"os"
)

// WriteCSV writes a header row followed by rows to w. Every row must
// have the same column count as headers (spec.md §6: "representative
// JSON fields enumerated inline in the CSV headers").
func WriteCSV(w *csv.Writer, headers []string, rows [][]string) error {
	if err := w.Write(headers); err != nil {
		return err
	}
	for i, row := range rows {
		if len(row) != len(headers) {
			return fmt.Errorf("export: CSV row %d has %d columns, want %d", i, len(row), len(headers))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// SaveCSVToFile writes headers+rows as CSV to filepath (created with
// os.Create: mode 0666 before umask).
func SaveCSVToFile(filepath string, headers []string, rows [][]string) error {
	f, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCSV(csv.NewWriter(f), headers, rows)
}
