package tableio

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/leeovery/sndedup/internal/record"
)

// loadSQLite reads every row of table from the database at path in the
// order SQLite returns them. INTEGER and REAL become numbers, TEXT and BLOB
// become strings, NULL becomes Missing.
func loadSQLite(path, table string) (*record.Table, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path, "ro"))
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer db.Close()

	rows, err := db.Query("SELECT * FROM " + quoteIdent(table))
	if err != nil {
		return nil, &FormatError{Path: path, Err: fmt.Errorf("querying table %s: %w", table, err)}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	t := record.NewTable(columns...)

	raw := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &FormatError{Path: path, Err: fmt.Errorf("scanning row %d: %w", t.Len()+1, err)}
		}
		cells := make([]record.Value, len(raw))
		for i, v := range raw {
			cells[i] = sqliteValue(v)
		}
		t.Append(cells...)
	}
	if err := rows.Err(); err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return t, nil
}

// uriEscaper escapes the characters SQLite treats specially in a URI
// filename.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// sqliteDSN returns a URI filename for path opened in the given mode.
func sqliteDSN(path, mode string) string {
	return "file:" + uriEscaper.Replace(path) + "?mode=" + mode
}

func sqliteValue(v any) record.Value {
	switch x := v.(type) {
	case nil:
		return record.Missing()
	case int64:
		return record.Number(float64(x))
	case float64:
		return record.Number(x)
	case bool:
		return record.Bool(x)
	case time.Time:
		return record.Time(x)
	case []byte:
		return record.String(string(x))
	case string:
		return record.String(x)
	default:
		return record.String(fmt.Sprint(x))
	}
}

// writeSQLite creates table in a new database at path and inserts every row
// in one transaction. Columns are untyped so each value keeps its own
// storage class.
func writeSQLite(path string, t *record.Table, table string) error {
	db, err := sql.Open("sqlite3", sqliteDSN(path, "rwc"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c)
		marks[i] = "?"
	}
	if len(cols) == 0 {
		return fmt.Errorf("table has no columns")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(cols, ", "))
	if _, err := tx.Exec(create); err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for _, r := range t.Rows {
		for i := range args {
			args[i] = sqliteArg(r.Cell(i))
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func sqliteArg(v record.Value) any {
	switch v.Kind() {
	case record.KindNumber:
		n, _ := v.Num()
		if n == float64(int64(n)) {
			return int64(n)
		}
		return n
	case record.KindBool:
		b, _ := v.BoolVal()
		return b
	case record.KindTime:
		ts, _ := v.TimeVal()
		return ts
	case record.KindString:
		return v.Str()
	default:
		return nil
	}
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
