package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		want zapcore.Level
	}{
		{"default", Options{}, zapcore.WarnLevel},
		{"verbose", Options{Verbose: true}, zapcore.DebugLevel},
		{"quiet", Options{Quiet: true}, zapcore.ErrorLevel},
		{"quiet beats verbose", Options{Quiet: true, Verbose: true}, zapcore.ErrorLevel},
		{"explicit level wins", Options{Quiet: true, Level: "INFO"}, zapcore.InfoLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LevelFor(tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("it rejects unknown levels", func(t *testing.T) {
		_, err := LevelFor(Options{Level: "chatty"})
		assert.ErrorContains(t, err, `invalid log level "chatty"`)
	})
}

func TestNew(t *testing.T) {
	t.Run("it writes debug lines with the verbose prefix when verbose", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(&buf, Options{Verbose: true})
		require.NoError(t, err)

		log.Debug("loading table", zap.String("path", "in.xlsx"))

		assert.Equal(t, "verbose: loading table {\"path\": \"in.xlsx\"}\n", buf.String())
	})

	t.Run("it writes nothing below warn by default", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(&buf, Options{})
		require.NoError(t, err)

		log.Debug("hidden")
		log.Info("hidden")
		log.Warn("duplicate column")

		assert.Equal(t, "WARN: duplicate column\n", buf.String())
	})

	t.Run("it keeps only errors when quiet", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(&buf, Options{Quiet: true})
		require.NoError(t, err)

		log.Warn("hidden")
		log.Error("boom")

		assert.Equal(t, "ERROR: boom\n", buf.String())
	})
}
