package migration

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// RowWriter writes derived export rows to disk. Each row is a string-keyed
// field map; writers decide column ordering and escaping.
type RowWriter interface {
	WriteCSV(path string, rows []map[string]string) error
	WriteJSONL(path string, rows []map[string]string) error
	WriteXLSX(path string, rows []map[string]string) error
}

// FileWriters is the default RowWriter. XLSX output needs an external
// writer; the default reports it unsupported and the stage logs the miss.
type FileWriters struct{}

func (FileWriters) WriteCSV(path string, rows []map[string]string) error {
	cols := columns(rows)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func (FileWriters) WriteJSONL(path string, rows []map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	return nil
}

func (FileWriters) WriteXLSX(path string, rows []map[string]string) error {
	return fmt.Errorf("xlsx writer not configured")
}

// columns returns the sorted union of keys across all rows, id first.
func columns(rows []map[string]string) []string {
	set := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			set[k] = true
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		if k != "id" {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	if set["id"] {
		cols = append([]string{"id"}, cols...)
	}
	return cols
}
