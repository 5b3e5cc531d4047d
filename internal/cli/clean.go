package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leeovery/sndedup/internal/config"
	"github.com/leeovery/sndedup/internal/dedup"
	"github.com/leeovery/sndedup/internal/engine"
	"github.com/leeovery/sndedup/internal/logger"
	"github.com/leeovery/sndedup/internal/metrics"
	"github.com/leeovery/sndedup/internal/picker"
	"github.com/leeovery/sndedup/internal/progress"
	"github.com/leeovery/sndedup/internal/tableio"
)

// cancelMessage is printed when the file chooser is dismissed.
const cancelMessage = "No file selected. Exiting."

// valueFlags are the clean flags that take a separate value argument.
var valueFlags = map[string]bool{
	"--input":        true,
	"--output":       true,
	"--config":       true,
	"--order":        true,
	"--metrics-file": true,
}

// cleanFlags holds the parsed flags for the clean command.
type cleanFlags struct {
	input       string
	output      string
	config      string
	order       string
	metricsFile string
	noProgress  bool
}

// parseCleanArgs parses clean flags and the optional positional FILE.
// Global flags are accepted anywhere and applied to g.
func parseCleanArgs(args []string, g *globalFlags) (*cleanFlags, error) {
	flags := &cleanFlags{}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if applyGlobalFlag(arg, g) {
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		if valueFlags[name] {
			if !hasValue {
				i++
				if i >= len(args) {
					return nil, usageErrorf("%s requires a value", name)
				}
				value = args[i]
			}
			if value == "" {
				return nil, usageErrorf("%s requires a value", name)
			}
			switch name {
			case "--input":
				flags.input = value
			case "--output":
				flags.output = value
			case "--config":
				flags.config = value
			case "--order":
				flags.order = value
			case "--metrics-file":
				flags.metricsFile = value
			}
			continue
		}

		switch {
		case arg == "--no-progress":
			flags.noProgress = true
		case strings.HasPrefix(arg, "-"):
			return nil, usageErrorf("unknown flag '%s'. Run 'sndedup help clean' for usage.", arg)
		case flags.input == "":
			flags.input = arg
		default:
			return nil, usageErrorf("unexpected argument '%s': clean takes a single FILE", arg)
		}
	}

	if flags.order != "" {
		if _, err := dedup.ParseOrder(flags.order); err != nil {
			return nil, &usageError{msg: err.Error()}
		}
	}
	return flags, nil
}

// runClean selects the input, loads the config and runs the pipeline.
func (a *App) runClean(args []string, g globalFlags, started time.Time) error {
	flags, err := parseCleanArgs(args, &g)
	if err != nil {
		return err
	}
	fc, err := NewFormatConfig(g.Toon, g.Pretty, g.JSON, g.Quiet, g.Verbose)
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	formatter := fc.Formatter(a.Stdout)

	input := flags.input
	if input == "" {
		if a.Picker == nil {
			return usageErrorf("no input file given. Run 'sndedup help clean' for usage.")
		}
		input, err = a.Picker.RequestFilePath(tableio.Filters())
		if errors.Is(err, picker.ErrCancelled) {
			return formatter.FormatNotice(a.Stdout, cancelMessage)
		}
		if err != nil {
			return fmt.Errorf("file selection failed: %w", err)
		}
	}

	cfg, err := config.Load(config.Locate(flags.config, input))
	if err != nil {
		return err
	}
	if flags.order != "" {
		cfg.Output.Order = flags.order
	}
	if flags.metricsFile != "" {
		cfg.Metrics.File = flags.metricsFile
	}

	log, err := logger.New(a.Stderr, logger.Options{Verbose: g.Verbose, Quiet: g.Quiet, Level: cfg.Log.Level})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Debug("input selected", zap.String("path", input))

	order, err := dedup.ParseOrder(cfg.Output.Order)
	if err != nil {
		return err
	}

	steps, groups := a.progress(cfg, flags.noProgress || g.Quiet)
	steps.Advance(1)

	run := metrics.NewRun()
	cleaner := engine.New(
		engine.WithLogger(log),
		engine.WithMetrics(run),
		engine.WithStepProgress(steps),
		engine.WithGroupProgress(groups),
		engine.WithClock(a.now),
	)
	sum, err := cleaner.Run(engine.Request{
		Input:       input,
		Output:      flags.output,
		Suffix:      cfg.Output.Suffix,
		Format:      cfg.Output.Format,
		KeyColumn:   cfg.Columns.Key,
		ScoreColumn: cfg.Columns.Score,
		Order:       order,
		Table:       cfg.SQLite.Table,
		Started:     started,
	})

	if cfg.Metrics.File != "" {
		if werr := run.WriteFile(cfg.Metrics.File); werr != nil {
			log.Warn("metrics not written", zap.Error(werr))
		} else {
			log.Debug("metrics written", zap.String("path", cfg.Metrics.File))
		}
	}
	if err != nil {
		return err
	}

	return formatter.FormatSummary(a.Stdout, sum)
}

// progress returns the overall step progress and the per-group factory.
func (a *App) progress(cfg config.Config, disabled bool) (progress.Progress, progress.Factory) {
	if disabled || !cfg.ProgressEnabled() {
		return progress.Nop{}, nil
	}
	bars := progress.BarFactory(a.Stderr)
	steps := bars(engine.TotalSteps, engine.OverallProgressDesc)
	if !cfg.ProgressDetailed() {
		return steps, nil
	}
	return steps, bars
}
