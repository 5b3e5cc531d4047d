// Package engine runs the cleaning pipeline: load, validate, normalize,
// deduplicate and save.
package engine

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/leeovery/sndedup/internal/dedup"
	"github.com/leeovery/sndedup/internal/metrics"
	"github.com/leeovery/sndedup/internal/normalize"
	"github.com/leeovery/sndedup/internal/progress"
	"github.com/leeovery/sndedup/internal/record"
	"github.com/leeovery/sndedup/internal/schema"
	"github.com/leeovery/sndedup/internal/tableio"
)

// TotalSteps is the length of the overall progress: select, read,
// validate, deduplicate, write and finish. The caller advances the first
// step once the input is chosen; Run advances the rest.
const TotalSteps = 6

// DefaultSuffix is appended to the input base name when Request.Suffix is
// empty.
const DefaultSuffix = "_cleaned"

// OverallProgressDesc labels the overall progress bar.
const OverallProgressDesc = "Overall"

// Request describes one cleaning run.
type Request struct {
	// Input is the file to clean.
	Input string
	// Output overrides the derived output path when set.
	Output string
	// Suffix and Format derive the output path from Input.
	Suffix string
	Format string

	KeyColumn   string
	ScoreColumn string
	Order       dedup.Order
	Table       string

	// Started is when the run began, including file selection. Zero means
	// when Run is called.
	Started time.Time
}

// Summary reports a completed run.
type Summary struct {
	Input    string        `json:"input"`
	Output   string        `json:"output"`
	RowsRead int           `json:"rows_read"`
	RowsKept int           `json:"rows_kept"`
	Removed  int           `json:"rows_removed"`
	Groups   int           `json:"groups"`
	Coerced  int           `json:"scores_coerced"`
	Score    string        `json:"score_column"`
	Key      string        `json:"key_column"`
	Elapsed  time.Duration `json:"-"`
}

// Cleaner executes Requests.
type Cleaner struct {
	logger  *zap.Logger
	metrics *metrics.Run
	steps   progress.Progress
	groups  progress.Factory
	now     func() time.Time
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithLogger sets the logger for stage diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cleaner) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records run counters and stage timings into m.
func WithMetrics(m *metrics.Run) Option {
	return func(c *Cleaner) { c.metrics = m }
}

// WithStepProgress reports one unit per pipeline step to p.
func WithStepProgress(p progress.Progress) Option {
	return func(c *Cleaner) {
		if p != nil {
			c.steps = p
		}
	}
}

// WithGroupProgress builds a per-key progress for the dedup step.
func WithGroupProgress(f progress.Factory) Option {
	return func(c *Cleaner) { c.groups = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Cleaner.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{
		logger: zap.NewNop(),
		steps:  progress.Nop{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run cleans req.Input and writes the result. Errors are the typed errors of
// tableio and schema, unwrapped, so callers can classify them. Nothing is
// written when any stage before the save fails.
func (c *Cleaner) Run(req Request) (Summary, error) {
	defer c.steps.Done()

	started := req.Started
	if started.IsZero() {
		started = c.now()
	}
	key, score := req.KeyColumn, req.ScoreColumn
	if key == "" {
		key = schema.KeyColumn
	}
	if score == "" {
		score = schema.ScoreColumn
	}

	output, err := c.outputPath(req)
	if err != nil {
		return Summary{}, err
	}
	ioOpts := []tableio.Option{tableio.WithTable(req.Table), tableio.WithLogger(c.logger)}

	var t *record.Table
	err = c.stage(metrics.StageLoad, func() error {
		var err error
		t, err = tableio.Load(req.Input, ioOpts...)
		return err
	})
	if err != nil {
		return Summary{}, err
	}
	c.steps.Advance(1)
	if c.metrics != nil {
		c.metrics.RowsRead(t.Len())
	}

	err = c.stage(metrics.StageValidate, func() error {
		schema.TrimColumns(t)
		if dups := schema.Duplicates(t.Columns); len(dups) > 0 {
			c.logger.Warn("duplicate column names, using the first of each", zap.Strings("columns", dups))
		}
		return schema.Validate(t.Columns, key, score)
	})
	if err != nil {
		return Summary{}, err
	}
	c.steps.Advance(1)

	keyCol, scoreCol := t.ColumnIndex(key), t.ColumnIndex(score)
	var report normalize.Report
	_ = c.stage(metrics.StageNormalize, func() error {
		report = normalize.Scores(t, scoreCol)
		return nil
	})
	if report.Coerced > 0 {
		c.logger.Debug("score cells treated as missing",
			zap.Int("count", report.Coerced),
			zap.Ints("rows", report.CoercedRows),
		)
	}

	dedupOpts := []dedup.Option{dedup.WithOrder(req.Order)}
	if c.groups != nil {
		dedupOpts = append(dedupOpts, dedup.WithProgressFactory(c.groups))
	}
	var res dedup.Result
	_ = c.stage(metrics.StageDedup, func() error {
		res = dedup.Select(t.Rows, keyCol, scoreCol, dedupOpts...)
		return nil
	})
	c.steps.Advance(1)
	c.logger.Debug("deduplicated",
		zap.Int("rows", t.Len()),
		zap.Int("groups", res.Groups),
		zap.Int("removed", res.Removed),
		zap.String("order", string(req.Order)),
	)

	err = c.stage(metrics.StageSave, func() error {
		return tableio.Save(output, t.WithRows(res.Rows), ioOpts...)
	})
	if err != nil {
		return Summary{}, err
	}
	c.steps.Advance(1)

	if c.metrics != nil {
		c.metrics.RowsRemoved(res.Removed)
		c.metrics.Groups(res.Groups)
		c.metrics.ScoresCoerced(report.Coerced)
	}
	c.steps.Advance(1)

	return Summary{
		Input:    req.Input,
		Output:   output,
		RowsRead: t.Len(),
		RowsKept: len(res.Rows),
		Removed:  res.Removed,
		Groups:   res.Groups,
		Coerced:  report.Coerced,
		Key:      key,
		Score:    score,
		Elapsed:  c.now().Sub(started),
	}, nil
}

// outputPath resolves where the cleaned table goes and refuses to overwrite
// the input.
func (c *Cleaner) outputPath(req Request) (string, error) {
	output := req.Output
	if output == "" {
		ext, err := tableio.ExtFor(req.Input, req.Format)
		if err != nil {
			return "", &tableio.WriteError{Path: req.Input, Err: err}
		}
		suffix := req.Suffix
		if suffix == "" {
			suffix = DefaultSuffix
		}
		output = tableio.OutputPath(req.Input, suffix, ext)
	}
	if samePath(output, req.Input) {
		return "", &tableio.WriteError{Path: output, Err: fmt.Errorf("output would overwrite the input file")}
	}
	return output, nil
}

// stage runs fn and records its duration.
func (c *Cleaner) stage(name string, fn func() error) error {
	start := c.now()
	c.logger.Debug("stage started", zap.String("stage", name))
	err := fn()
	d := c.now().Sub(start)
	if c.metrics != nil {
		c.metrics.ObserveStage(name, d)
	}
	c.logger.Debug("stage finished", zap.String("stage", name), zap.Duration("took", d), zap.Error(err))
	return err
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
