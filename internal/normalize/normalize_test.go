package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeovery/sndedup/internal/record"
)

func TestScores(t *testing.T) {
	t.Run("it parses integer and float strings", func(t *testing.T) {
		tbl := record.NewTable("SN", "Scan Count")
		tbl.Append(record.String("A"), record.String("3"))
		tbl.Append(record.String("A"), record.String(" 7.5 "))
		tbl.Append(record.String("A"), record.String("1e3"))
		tbl.Append(record.String("A"), record.String("-2"))

		rep := Scores(tbl, 1)

		assert.Equal(t, 4, rep.Visited)
		assert.Zero(t, rep.Coerced)
		want := []float64{3, 7.5, 1000, -2}
		for i, w := range want {
			got, ok := Score(tbl.Rows[i].Cells[1])
			require.True(t, ok, "row %d", i)
			assert.Equal(t, w, got, "row %d", i)
		}
	})

	t.Run("it turns unparsable cells into the missing marker without aborting", func(t *testing.T) {
		tbl := record.NewTable("SN", "Scan Count")
		tbl.Append(record.String("B"), record.String("x"))
		tbl.Append(record.String("B"), record.Number(5))
		tbl.Append(record.String("C"), record.String("bad"))

		rep := Scores(tbl, 1)

		assert.Equal(t, 3, rep.Visited)
		assert.Equal(t, 2, rep.Coerced)
		assert.Equal(t, []int{0, 2}, rep.CoercedRows)
		assert.True(t, tbl.Rows[0].Cells[1].IsMissing())
		assert.True(t, tbl.Rows[2].Cells[1].IsMissing())
		got, ok := Score(tbl.Rows[1].Cells[1])
		require.True(t, ok)
		assert.Equal(t, 5.0, got)
	})

	t.Run("it leaves every other column untouched", func(t *testing.T) {
		tbl := record.NewTable("SN", "Scan Count", "Note")
		tbl.Append(record.String(" A "), record.String("bad"), record.String("007"))

		Scores(tbl, 1)

		assert.Equal(t, record.String(" A "), tbl.Rows[0].Cells[0])
		assert.Equal(t, record.String("007"), tbl.Rows[0].Cells[2])
	})

	t.Run("it does not count empty cells as coercion failures", func(t *testing.T) {
		tbl := record.NewTable("SN", "Scan Count")
		tbl.Append(record.String("A"), record.Missing())
		tbl.Append(record.String("A"), record.String("   "))

		rep := Scores(tbl, 1)

		assert.Equal(t, 1, rep.Coerced)
		assert.True(t, tbl.Rows[0].Cells[1].IsMissing())
		assert.True(t, tbl.Rows[1].Cells[1].IsMissing())
	})

	t.Run("it treats booleans, NaN and infinities as missing", func(t *testing.T) {
		tbl := record.NewTable("SN", "Scan Count")
		tbl.Append(record.String("A"), record.Bool(true))
		tbl.Append(record.String("A"), record.Number(math.NaN()))
		tbl.Append(record.String("A"), record.String("Inf"))
		tbl.Append(record.String("A"), record.String("NaN"))

		rep := Scores(tbl, 1)

		assert.Equal(t, 4, rep.Coerced)
		for i := range tbl.Rows {
			assert.True(t, tbl.Rows[i].Cells[1].IsMissing(), "row %d", i)
		}
	})

	t.Run("it handles an empty table", func(t *testing.T) {
		tbl := record.NewTable("SN", "Scan Count")
		rep := Scores(tbl, 1)
		assert.Equal(t, Report{}, rep)
	})
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"+4", 4, true},
		{"0.5", 0.5, true},
		{"", 0, false},
		{"1,000", 0, false},
		{"abc", 0, false},
		{"-inf", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseNumber(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
