package tableio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/leeovery/sndedup/internal/record"
)

// Built-in number format IDs that render as dates or times.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// xlsxReader converts raw cell values of one sheet to typed values.
type xlsxReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	isDate   map[int]bool // style ID -> date format
}

func loadXLSX(path string) (*record.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, &IOError{Path: path, Err: err}
		}
		return nil, &FormatError{Path: path, Err: err}
	}
	defer closeQuietly(f)

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &FormatError{Path: path, Err: errors.New("workbook has no sheets")}
	}
	x := &xlsxReader{f: f, sheet: sheets[0], isDate: map[int]bool{}}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		x.date1904 = *props.Date1904
	}

	rows, err := f.GetRows(x.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &FormatError{Path: path, Err: fmt.Errorf("reading sheet %q: %w", x.sheet, err)}
	}
	if len(rows) == 0 {
		return record.NewTable(), nil
	}

	t := record.NewTable(rows[0]...)
	width := len(t.Columns)
	for ri, row := range rows[1:] {
		cells := make([]record.Value, max(width, len(row)))
		for ci, raw := range row {
			v, err := x.value(ci+1, ri+2, raw)
			if err != nil {
				return nil, &FormatError{Path: path, Err: err}
			}
			cells[ci] = v
		}
		t.Append(cells...)
	}
	return t, nil
}

// value converts the raw content of the cell at (col, row), both 1-based.
func (x *xlsxReader) value(col, row int, raw string) (record.Value, error) {
	if raw == "" {
		return record.Missing(), nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return record.Missing(), err
	}
	typ, err := x.f.GetCellType(x.sheet, cell)
	if err != nil {
		return record.Missing(), fmt.Errorf("cell %s: %w", cell, err)
	}

	switch typ {
	case excelize.CellTypeBool:
		return record.Bool(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeDate:
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return record.Time(ts), nil
		}
		if ts, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
			return record.Time(ts), nil
		}
		return record.String(raw), nil
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return record.String(raw), nil
		}
		date, err := x.dateStyled(cell)
		if err != nil {
			return record.Missing(), err
		}
		if date {
			ts, err := excelize.ExcelDateToTime(n, x.date1904)
			if err == nil {
				return record.Time(ts), nil
			}
		}
		return record.Number(n), nil
	default:
		// Shared, inline and formula strings, and error values.
		return record.String(raw), nil
	}
}

func (x *xlsxReader) dateStyled(cell string) (bool, error) {
	styleID, err := x.f.GetCellStyle(x.sheet, cell)
	if err != nil {
		return false, fmt.Errorf("cell %s style: %w", cell, err)
	}
	if styleID == 0 {
		return false, nil
	}
	if d, ok := x.isDate[styleID]; ok {
		return d, nil
	}
	style, err := x.f.GetStyle(styleID)
	if err != nil {
		return false, fmt.Errorf("style %d: %w", styleID, err)
	}
	d := builtinDateFormats[style.NumFmt]
	if !d && style.CustomNumFmt != nil {
		d = isDateFormatCode(*style.CustomNumFmt)
	}
	x.isDate[styleID] = d
	return d, nil
}

// isDateFormatCode reports whether a custom number format renders dates or
// times. Quoted literals, bracketed sections and escaped characters are
// ignored.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	stripped := strings.ToLower(b.String())
	if strings.Contains(stripped, "general") {
		return false
	}
	return strings.ContainsAny(stripped, "ymdhs")
}

// writeXLSX writes t to a single "Sheet1" worksheet. Numbers, booleans and
// times are written as typed cells; Missing is left empty.
func writeXLSX(w io.Writer, t *record.Table) error {
	f := excelize.NewFile()
	defer closeQuietly(f)

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return fmt.Errorf("creating date style: %w", err)
	}
	dateTimeStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		return fmt.Errorf("creating date-time style: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	values := make([]interface{}, len(t.Columns))
	for ri, r := range t.Rows {
		for ci := range values {
			values[ci] = xlsxCell(r.Cell(ci), dateStyle, dateTimeStyle)
		}
		cell, err := excelize.CoordinatesToCellName(1, ri+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("writing row %d: %w", r.Index, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("encoding workbook: %w", err)
	}
	return nil
}

func xlsxCell(v record.Value, dateStyle, dateTimeStyle int) interface{} {
	switch v.Kind() {
	case record.KindNumber:
		n, _ := v.Num()
		return n
	case record.KindBool:
		b, _ := v.BoolVal()
		return b
	case record.KindTime:
		ts, _ := v.TimeVal()
		style := dateTimeStyle
		if ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 && ts.Nanosecond() == 0 {
			style = dateStyle
		}
		return excelize.Cell{StyleID: style, Value: ts}
	case record.KindString:
		return v.Str()
	default:
		return nil
	}
}
