// Package schema checks that a loaded table carries the columns the
// deduplication needs.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leeovery/sndedup/internal/record"
)

// Default required column names.
const (
	KeyColumn   = "SN"
	ScoreColumn = "Scan Count"
)

// SchemaError reports required columns absent from a table header.
type SchemaError struct {
	// Missing holds the absent column names, sorted.
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("Missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// TrimColumns trims surrounding whitespace from every column name of t.
func TrimColumns(t *record.Table) {
	for i, c := range t.Columns {
		t.Columns[i] = strings.TrimSpace(c)
	}
}

// Validate returns a *SchemaError naming every required column not present
// in columns. Names are compared exactly; callers trim first.
func Validate(columns []string, required ...string) error {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var missing []string
	seen := make(map[string]struct{}, len(required))
	for _, r := range required {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		if _, ok := present[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &SchemaError{Missing: missing}
}

// Duplicates returns the column names that appear more than once, in order
// of their second appearance. Lookups resolve to the first occurrence.
func Duplicates(columns []string) []string {
	seen := make(map[string]int, len(columns))
	var dups []string
	for _, c := range columns {
		seen[c]++
		if seen[c] == 2 {
			dups = append(dups, c)
		}
	}
	return dups
}
