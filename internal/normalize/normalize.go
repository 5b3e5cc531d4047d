// Package normalize coerces the score column of a table to numbers.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/leeovery/sndedup/internal/record"
)

// Report summarizes one Scores pass.
type Report struct {
	Visited int
	// Coerced counts non-empty cells that could not be parsed and were
	// replaced by the missing marker.
	Coerced int
	// CoercedRows holds the source indexes of those cells.
	CoercedRows []int
}

// Scores rewrites column col of every row to a Number or to Missing. It never
// fails: cells that do not parse become Missing and are listed in the report.
// A negative col leaves the table untouched.
func Scores(t *record.Table, col int) Report {
	var rep Report
	if col < 0 {
		return rep
	}
	for i := range t.Rows {
		row := &t.Rows[i]
		rep.Visited++
		if col >= len(row.Cells) {
			continue
		}
		in := row.Cells[col]
		out, ok := coerce(in)
		row.Cells[col] = out
		if !ok && !in.IsMissing() {
			rep.Coerced++
			rep.CoercedRows = append(rep.CoercedRows, row.Index)
		}
	}
	return rep
}

// Score returns the numeric score held by v. ok is false for the missing
// marker and for anything that is not a finite number.
func Score(v record.Value) (float64, bool) {
	f, ok := v.Num()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerce(v record.Value) (record.Value, bool) {
	switch v.Kind() {
	case record.KindNumber:
		if _, ok := Score(v); ok {
			return v, true
		}
		return record.Missing(), false
	case record.KindString:
		f, ok := ParseNumber(v.Str())
		if !ok {
			return record.Missing(), false
		}
		return record.Number(f), true
	default:
		return record.Missing(), false
	}
}

// ParseNumber parses s as an integer or floating-point number after trimming
// surrounding whitespace. NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return float64(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
