// Package logger builds the zap logger used for diagnostics on stderr.
package logger

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the log level. Level, when set, wins over the flags.
type Options struct {
	Verbose bool
	Quiet   bool
	Level   string
}

// LevelFor resolves the effective level: warn by default, debug when
// verbose, error when quiet.
func LevelFor(opts Options) (zapcore.Level, error) {
	if opts.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return zapcore.InvalidLevel, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		return level, nil
	}
	switch {
	case opts.Quiet:
		return zapcore.ErrorLevel, nil
	case opts.Verbose:
		return zapcore.DebugLevel, nil
	default:
		return zapcore.WarnLevel, nil
	}
}

// New creates a console logger writing to w. Lines carry no timestamp and
// start with a grep-able level prefix ("verbose:", "INFO:", "WARN:",
// "ERROR:").
func New(w io.Writer, opts Options) (*zap.Logger, error) {
	level, err := LevelFor(opts)
	if err != nil {
		return nil, err
	}

	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      encodeLevel,
		ConsoleSeparator: " ",
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch l {
	case zapcore.DebugLevel:
		enc.AppendString("verbose:")
	default:
		enc.AppendString(l.CapitalString() + ":")
	}
}
