package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteCSVWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocks.csv")
	headers := []string{"id", "area", "district"}
	rows := [][]string{{"0", "12", "1"}, {"1", "8", "2"}}
	if err := SaveCSVToFile(path, headers, rows); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	for i, h := range headers {
		if records[0][i] != h {
			t.Fatalf("header mismatch at %d: got %q want %q", i, records[0][i], h)
		}
	}
}

func TestWriteCSVRejectsMismatchedColumnCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	err := SaveCSVToFile(path, []string{"a", "b"}, [][]string{{"1"}})
	if err == nil {
		t.Fatalf("expected error for mismatched column count")
	}
}
