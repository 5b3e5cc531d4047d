package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Run("it counts rows, groups and coercions", func(t *testing.T) {
		r := NewRun()
		r.RowsRead(4)
		r.RowsRemoved(2)
		r.Groups(2)
		r.ScoresCoerced(1)

		assert.Equal(t, 4.0, testutil.ToFloat64(r.rowsRead))
		assert.Equal(t, 2.0, testutil.ToFloat64(r.rowsRemoved))
		assert.Equal(t, 2.0, testutil.ToFloat64(r.groups))
		assert.Equal(t, 1.0, testutil.ToFloat64(r.scoresCoerced))
	})

	t.Run("it keeps registries separate per run", func(t *testing.T) {
		a, b := NewRun(), NewRun()
		a.RowsRead(3)

		assert.Equal(t, 0.0, testutil.ToFloat64(b.rowsRead))
	})

	t.Run("it observes stage durations by label", func(t *testing.T) {
		r := NewRun()
		r.ObserveStage(StageLoad, 20*time.Millisecond)
		r.ObserveStage(StageSave, time.Second)

		assert.Equal(t, 2, testutil.CollectAndCount(r.stageDuration))
	})
}

func TestWriteFile(t *testing.T) {
	t.Run("it writes the text exposition format", func(t *testing.T) {
		r := NewRun()
		r.RowsRead(4)
		r.ObserveStage(StageDedup, time.Millisecond)
		path := filepath.Join(t.TempDir(), "sndedup.prom")

		require.NoError(t, r.WriteFile(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "sndedup_rows_read_total 4")
		assert.Contains(t, string(data), `sndedup_stage_duration_seconds_count{stage="dedup"} 1`)
	})

	t.Run("it fails for an unwritable directory", func(t *testing.T) {
		err := NewRun().WriteFile(filepath.Join(t.TempDir(), "missing", "m.prom"))
		assert.ErrorContains(t, err, "writing metrics")
	})
}
