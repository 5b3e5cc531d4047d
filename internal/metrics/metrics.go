// Package metrics collects per-run counters and writes them in the
// Prometheus text format for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage names used as the stage label.
const (
	StageLoad      = "load"
	StageValidate  = "validate"
	StageNormalize = "normalize"
	StageDedup     = "dedup"
	StageSave      = "save"
)

// Run holds the metrics of one cleaning run on a private registry.
type Run struct {
	reg *prometheus.Registry

	rowsRead      prometheus.Counter
	rowsRemoved   prometheus.Counter
	groups        prometheus.Counter
	scoresCoerced prometheus.Counter
	stageDuration *prometheus.HistogramVec
}

// NewRun creates and registers the run metrics.
func NewRun() *Run {
	r := &Run{
		reg: prometheus.NewRegistry(),
		rowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sndedup",
			Name:      "rows_read_total",
			Help:      "Data rows read from the input",
		}),
		rowsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sndedup",
			Name:      "rows_removed_total",
			Help:      "Duplicate rows dropped",
		}),
		groups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sndedup",
			Name:      "groups_total",
			Help:      "Distinct key values seen",
		}),
		scoresCoerced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sndedup",
			Name:      "scores_coerced_total",
			Help:      "Score cells that could not be read as numbers",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sndedup",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}
	r.reg.MustRegister(r.rowsRead, r.rowsRemoved, r.groups, r.scoresCoerced, r.stageDuration)
	return r
}

// RowsRead adds n rows read.
func (r *Run) RowsRead(n int) { r.rowsRead.Add(float64(n)) }

// RowsRemoved adds n dropped rows.
func (r *Run) RowsRemoved(n int) { r.rowsRemoved.Add(float64(n)) }

// Groups adds n distinct keys.
func (r *Run) Groups(n int) { r.groups.Add(float64(n)) }

// ScoresCoerced adds n coerced score cells.
func (r *Run) ScoresCoerced(n int) { r.scoresCoerced.Add(float64(n)) }

// ObserveStage records how long stage took.
func (r *Run) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Registry exposes the underlying registry.
func (r *Run) Registry() *prometheus.Registry { return r.reg }

// WriteFile writes all metrics to path atomically.
func (r *Run) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
