package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

type sampleReport struct {
	Seed  uint64  `json:"seed"`
	Score float64 `json:"score"`
}

func TestExportJSONIndentsWithTwoSpaces(t *testing.T) {
	data, err := ExportJSON(sampleReport{Seed: 7, Score: 1.5})
	if err != nil {
		t.Fatal(err)
	}
	var got sampleReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Seed != 7 || got.Score != 1.5 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(data) == 0 || data[0] != '{' {
		t.Fatalf("expected JSON object output")
	}
}

func TestExportJSONCompactIsShorterThanIndented(t *testing.T) {
	r := sampleReport{Seed: 1, Score: 2}
	indented, err := ExportJSON(r)
	if err != nil {
		t.Fatal(err)
	}
	compact, err := ExportJSONCompact(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(compact) >= len(indented) {
		t.Fatalf("expected compact output to be shorter: compact=%d indented=%d", len(compact), len(indented))
	}
}

func TestSaveJSONToFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	if err := SaveJSONToFile(sampleReport{Seed: 42}, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got sampleReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Seed != 42 {
		t.Fatalf("expected seed 42, got %d", got.Seed)
	}
}
