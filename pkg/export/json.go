package export

import (
	"encoding/json"
	"os"
)

// ExportJSON serializes v to JSON with 2-space indentation.
func ExportJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// ExportJSONCompact serializes v to JSON without indentation.
func ExportJSONCompact(v any) ([]byte, error) {
	return json.Marshal(v)
}

// SaveJSONToFile writes v as indented JSON to filepath (0644 permissions).
func SaveJSONToFile(v any, filepath string) error {
	data, err := ExportJSON(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// SaveJSONCompactToFile writes v as compact JSON to filepath (0644 permissions).
func SaveJSONCompactToFile(v any, filepath string) error {
	data, err := ExportJSONCompact(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}
