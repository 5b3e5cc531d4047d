package record

// Record is one source row. Cells are aligned with the owning table's
// Columns; Index is the row's position in the source sequence and is the
// record's identity.
type Record struct {
	Index int
	Cells []Value
}

// Cell returns the cell at column position col, or Missing when the row is
// shorter than col.
func (r Record) Cell(col int) Value {
	if col < 0 || col >= len(r.Cells) {
		return Missing()
	}
	return r.Cells[col]
}

// Equal reports whether two records carry identical cells.
func (r Record) Equal(o Record) bool {
	if len(r.Cells) != len(o.Cells) {
		return false
	}
	for i := range r.Cells {
		if !r.Cells[i].Equal(o.Cells[i]) {
			return false
		}
	}
	return true
}

// Table is an ordered sequence of records sharing one header.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable creates an empty table with the given header.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Append adds a row built from cells. The row is padded with Missing up to
// the header width and gets the next source index. A row wider than the
// header extends the header with unnamed columns.
func (t *Table) Append(cells ...Value) {
	for len(t.Columns) < len(cells) {
		t.Columns = append(t.Columns, "")
	}
	row := make([]Value, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, Record{Index: len(t.Rows), Cells: row})
}

// ColumnIndex returns the position of the first column named name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// WithRows returns a table sharing t's header with the given rows.
func (t *Table) WithRows(rows []Record) *Table {
	return &Table{Columns: append([]string(nil), t.Columns...), Rows: rows}
}
