package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/leeovery/sndedup/internal/dedup"
	"github.com/leeovery/sndedup/internal/metrics"
	"github.com/leeovery/sndedup/internal/progress"
	"github.com/leeovery/sndedup/internal/record"
	"github.com/leeovery/sndedup/internal/schema"
	"github.com/leeovery/sndedup/internal/tableio"
	fixtures "github.com/leeovery/sndedup/internal/testutil"
)

type countingProgress struct {
	advanced int
	done     int
}

func (c *countingProgress) Advance(n int) { c.advanced += n }
func (c *countingProgress) Done()         { c.done++ }

func scanFixture(t *testing.T, dir string) string {
	t.Helper()
	return fixtures.WriteXLSX(t, dir, "scans.xlsx",
		[]string{"SN", "Scan Count", "Note"},
		[]any{"A", 3, "a1"},
		[]any{"A", 7, "a2"},
		[]any{"B", "x", "b1"},
		[]any{"B", 5, "b2"},
	)
}

func TestRun(t *testing.T) {
	t.Run("it keeps the best row per SN and writes <base>_cleaned.xlsx", func(t *testing.T) {
		dir := t.TempDir()
		input := scanFixture(t, dir)

		sum, err := New().Run(Request{Input: input})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "scans_cleaned.xlsx"), sum.Output)
		assert.Equal(t, 4, sum.RowsRead)
		assert.Equal(t, 2, sum.RowsKept)
		assert.Equal(t, 2, sum.Removed)
		assert.Equal(t, 2, sum.Groups)
		assert.Equal(t, 1, sum.Coerced)

		out, err := tableio.Load(sum.Output)
		require.NoError(t, err)
		assert.Equal(t, []string{"SN", "Scan Count", "Note"}, out.Columns)
		require.Equal(t, 2, out.Len())
		assert.Equal(t, record.String("a2"), out.Rows[0].Cells[2])
		assert.Equal(t, record.Number(7), out.Rows[0].Cells[1])
		assert.Equal(t, record.String("b2"), out.Rows[1].Cells[2])
		assert.Equal(t, record.Number(5), out.Rows[1].Cells[1])
	})

	t.Run("it keeps a lone unparsable row with an empty score", func(t *testing.T) {
		dir := t.TempDir()
		input := fixtures.WriteCSV(t, dir, "c.csv", "SN,Scan Count,Note", "C,bad,only")

		sum, err := New().Run(Request{Input: input, Format: "csv"})
		require.NoError(t, err)

		assert.Zero(t, sum.Removed)
		data, err := os.ReadFile(sum.Output)
		require.NoError(t, err)
		assert.Equal(t, "SN,Scan Count,Note\nC,,only\n", string(data))
	})

	t.Run("it writes headers only for a table without rows", func(t *testing.T) {
		dir := t.TempDir()
		input := fixtures.WriteXLSX(t, dir, "empty.xlsx", []string{"SN", "Scan Count"})

		sum, err := New().Run(Request{Input: input})
		require.NoError(t, err)

		assert.Zero(t, sum.Removed)
		out, err := tableio.Load(sum.Output)
		require.NoError(t, err)
		assert.Equal(t, []string{"SN", "Scan Count"}, out.Columns)
		assert.Zero(t, out.Len())
	})

	t.Run("it trims header whitespace before validating", func(t *testing.T) {
		dir := t.TempDir()
		input := fixtures.WriteCSV(t, dir, "in.csv", " SN ,Scan Count ", "A,1", "A,2")

		sum, err := New().Run(Request{Input: input, Format: "same"})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "in_cleaned.csv"), sum.Output)
		data, err := os.ReadFile(sum.Output)
		require.NoError(t, err)
		assert.Equal(t, "SN,Scan Count\nA,2\n", string(data))
	})

	t.Run("it honours custom column names and order", func(t *testing.T) {
		dir := t.TempDir()
		input := fixtures.WriteCSV(t, dir, "in.csv", "Serial,Hits", "B,1", "A,1", "B,2")

		sum, err := New().Run(Request{
			Input:       input,
			Format:      "csv",
			KeyColumn:   "Serial",
			ScoreColumn: "Hits",
			Order:       dedup.OrderKey,
		})
		require.NoError(t, err)

		data, err := os.ReadFile(sum.Output)
		require.NoError(t, err)
		assert.Equal(t, "Serial,Hits\nA,1\nB,2\n", string(data))
	})

	t.Run("it writes to an explicit output path", func(t *testing.T) {
		dir := t.TempDir()
		input := scanFixture(t, dir)
		output := filepath.Join(dir, "result.sqlite")

		sum, err := New().Run(Request{Input: input, Output: output})
		require.NoError(t, err)

		assert.Equal(t, output, sum.Output)
		out, err := tableio.Load(output)
		require.NoError(t, err)
		assert.Equal(t, 2, out.Len())
	})
}

func TestRunErrors(t *testing.T) {
	t.Run("it reports missing columns sorted and writes nothing", func(t *testing.T) {
		dir := t.TempDir()
		input := fixtures.WriteCSV(t, dir, "in.csv", "Serial,Note", "A,x")

		_, err := New().Run(Request{Input: input})

		var se *schema.SchemaError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, []string{"SN", "Scan Count"}, se.Missing)
		assert.Equal(t, "Missing required column(s): SN, Scan Count", err.Error())
		_, statErr := os.Stat(filepath.Join(dir, "in_cleaned.xlsx"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("it returns an IOError for a missing input", func(t *testing.T) {
		_, err := New().Run(Request{Input: filepath.Join(t.TempDir(), "nope.xlsx")})

		var ioe *tableio.IOError
		assert.True(t, errors.As(err, &ioe))
	})

	t.Run("it returns a FormatError for an unsupported input", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("SN\n"), 0644))

		_, err := New().Run(Request{Input: path})

		var fe *tableio.FormatError
		assert.True(t, errors.As(err, &fe))
	})

	t.Run("it refuses to overwrite the input", func(t *testing.T) {
		dir := t.TempDir()
		input := fixtures.WriteCSV(t, dir, "in.csv", "SN,Scan Count", "A,1")

		_, err := New().Run(Request{Input: input, Output: input})

		var we *tableio.WriteError
		require.True(t, errors.As(err, &we))
		data, readErr := os.ReadFile(input)
		require.NoError(t, readErr)
		assert.Equal(t, "SN,Scan Count\nA,1\n", string(data))
	})

	t.Run("it returns a WriteError when the output cannot be written", func(t *testing.T) {
		dir := t.TempDir()
		input := scanFixture(t, dir)

		_, err := New().Run(Request{Input: input, Output: filepath.Join(dir, "missing", "out.xlsx")})

		var we *tableio.WriteError
		assert.True(t, errors.As(err, &we))
	})
}

func TestRunInstrumentation(t *testing.T) {
	t.Run("it advances five steps and finishes the overall progress", func(t *testing.T) {
		steps := &countingProgress{}
		groups := &countingProgress{}
		var groupTotal int
		factory := func(total int, desc string) progress.Progress {
			groupTotal = total
			return groups
		}

		_, err := New(WithStepProgress(steps), WithGroupProgress(factory)).Run(Request{Input: scanFixture(t, t.TempDir())})
		require.NoError(t, err)

		assert.Equal(t, TotalSteps-1, steps.advanced)
		assert.Equal(t, 1, steps.done)
		assert.Equal(t, 2, groupTotal)
		assert.Equal(t, 2, groups.advanced)
	})

	t.Run("it finishes the overall progress on failure", func(t *testing.T) {
		steps := &countingProgress{}

		_, err := New(WithStepProgress(steps)).Run(Request{Input: filepath.Join(t.TempDir(), "nope.csv")})
		require.Error(t, err)

		assert.Zero(t, steps.advanced)
		assert.Equal(t, 1, steps.done)
	})

	t.Run("it records run metrics", func(t *testing.T) {
		m := metrics.NewRun()

		_, err := New(WithMetrics(m)).Run(Request{Input: scanFixture(t, t.TempDir())})
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "run.prom")
		require.NoError(t, m.WriteFile(path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "sndedup_rows_read_total 4")
		assert.Contains(t, string(data), "sndedup_rows_removed_total 2")
		assert.Contains(t, string(data), "sndedup_groups_total 2")
		assert.Contains(t, string(data), "sndedup_scores_coerced_total 1")
		count, err := testutil.GatherAndCount(m.Registry(), "sndedup_stage_duration_seconds")
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("it measures elapsed time from the request start", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		now := start.Add(1500 * time.Millisecond)

		sum, err := New(WithClock(func() time.Time { return now })).Run(Request{
			Input:   scanFixture(t, t.TempDir()),
			Started: start,
		})
		require.NoError(t, err)

		assert.Equal(t, 1500*time.Millisecond, sum.Elapsed)
	})

	t.Run("it warns about duplicate column names", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		dir := t.TempDir()
		input := fixtures.WriteCSV(t, dir, "dup.csv", "SN,Scan Count,SN", "A,1,x", "A,2,y")

		sum, err := New(WithLogger(zap.New(core))).Run(Request{Input: input, Format: "csv"})
		require.NoError(t, err)

		require.Equal(t, 1, logs.Len())
		assert.Contains(t, logs.All()[0].Message, "duplicate column names")
		data, err := os.ReadFile(sum.Output)
		require.NoError(t, err)
		assert.Equal(t, "SN,Scan Count,SN\nA,2,y\n", string(data))
	})
}
