package tableio

import (
	"errors"
	"os"

	"github.com/extrame/xls"

	"github.com/leeovery/sndedup/internal/record"
)

// loadXLS reads the first sheet of a legacy BIFF workbook. The format offers
// no reliable cell types through the reader, so every non-empty cell loads as
// a string.
func loadXLS(path string) (*record.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer closeQuietly(f)

	wb, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	if wb == nil {
		return nil, &FormatError{Path: path, Err: errors.New("no workbook stream")}
	}
	if wb.NumSheets() == 0 {
		return nil, &FormatError{Path: path, Err: errors.New("workbook has no sheets")}
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &FormatError{Path: path, Err: errors.New("first sheet is unreadable")}
	}

	var header []string
	if row := sheetRow(sheet, 0); row != nil {
		for c := 0; c < row.LastCol(); c++ {
			header = append(header, row.Col(c))
		}
	}
	t := record.NewTable(header...)

	for i := 1; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			t.Append()
			continue
		}
		// LastCol is zero for rows built from cells without a ROW record.
		cells := make([]record.Value, max(row.LastCol(), len(header)))
		for c := range cells {
			if s := row.Col(c); s != "" {
				cells[c] = record.String(s)
			}
		}
		t.Append(cells...)
	}
	return t, nil
}

// sheetRow returns row i, or nil when the sheet has no such row.
// WorkSheet.Row dereferences a missing row and panics.
func sheetRow(s *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return s.Row(i)
}
