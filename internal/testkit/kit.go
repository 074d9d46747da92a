package testkit

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"statcalc/adapters/excel"
	"statcalc/adapters/sqlstore"
	"statcalc/domain/dataset"
	"statcalc/internal"
	"statcalc/internal/config"
)

// WriteCSV writes rows (header first) to dir/name and returns the path
func WriteCSV(t testing.TB, dir, name string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if filepath.Ext(name) == ".tsv" {
		w.Comma = '\t'
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteXLSX writes rows (header first) to the first sheet of a new workbook.
// Cells that parse as numbers are stored as numeric cells.
func WriteXLSX(t testing.TB, dir, name string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			var value interface{} = cell
			if i > 0 {
				if n, ok := parseFloat(cell); ok {
					value = n
				}
			}
			if cell == "" {
				continue
			}
			if err := f.SetCellValue(sheet, ref, value); err != nil {
				t.Fatalf("set %s: %v", ref, err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}

// Table builds a typed table from rows (header first) with the default coercion rules
func Table(rows [][]string) *dataset.Table {
	reader := excel.NewDataReader(excel.DefaultReaderConfig(), internal.NewDiscardLogger())
	raw := &excel.RawData{Headers: rows[0], Rows: rows[1:]}
	return reader.BuildTable(raw)
}

// NewReader returns a quiet data reader
func NewReader() *excel.DataReader {
	return excel.NewDataReader(excel.DefaultReaderConfig(), internal.NewDiscardLogger())
}

// NewStore opens a migrated in-memory SQLite store closed at test cleanup
func NewStore(t testing.TB) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    ":memory:",
	}, internal.NewDiscardLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
