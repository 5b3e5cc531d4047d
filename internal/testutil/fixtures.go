// Package testutil provides shared test helpers for building input files.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// WriteCSV writes lines joined by newlines to dir/name and returns the path.
func WriteCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// WriteXLSX writes a single-sheet workbook to dir/name and returns the path.
// Cells may be string, int, float64, bool, time.Time or nil; times get a
// date number format.
func WriteXLSX(t *testing.T, dir, name string, header []string, rows ...[]any) string {
	t.Helper()
	path := filepath.Join(dir, name)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatalf("failed to create date style: %v", err)
	}

	for ci, h := range header {
		cell, _ := excelize.CoordinatesToCellName(ci+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			t.Fatalf("failed to set header %s: %v", cell, err)
		}
	}
	for ri, row := range rows {
		for ci, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("failed to set %s: %v", cell, err)
			}
			if _, ok := v.(time.Time); ok {
				if err := f.SetCellStyle(sheet, cell, cell, dateStyle); err != nil {
					t.Fatalf("failed to style %s: %v", cell, err)
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save %s: %v", name, err)
	}
	return path
}
