// Package config loads the optional sndedup.yaml run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up next to the input.
const FileName = "sndedup.yaml"

// Config holds the run settings. Command-line flags override it.
type Config struct {
	Columns  ColumnsConfig  `yaml:"columns"`
	Output   OutputConfig   `yaml:"output"`
	Progress ProgressConfig `yaml:"progress"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ColumnsConfig names the key and score columns.
type ColumnsConfig struct {
	Key   string `yaml:"key"`
	Score string `yaml:"score"`
}

// OutputConfig controls where and how the cleaned table is written.
type OutputConfig struct {
	Suffix string `yaml:"suffix"`
	Format string `yaml:"format"` // xlsx, csv, tsv, sqlite, same
	Order  string `yaml:"order"`  // first-seen, source, key
}

// ProgressConfig toggles progress bars.
type ProgressConfig struct {
	Enabled  *bool `yaml:"enabled"`
	Detailed *bool `yaml:"detailed"`
}

// SQLiteConfig holds SQLite source and sink settings.
type SQLiteConfig struct {
	Table string `yaml:"table"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig holds the metrics textfile location.
type MetricsConfig struct {
	File string `yaml:"file"`
}

// Default returns a config with every default applied.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expanding ${VAR} and ${VAR:-default} first.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Locate returns the config file to use: explicit when set, otherwise
// FileName in the input's directory.
func Locate(explicit, input string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(filepath.Dir(input), FileName)
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Columns.Key == "" {
		c.Columns.Key = "SN"
	}
	if c.Columns.Score == "" {
		c.Columns.Score = "Scan Count"
	}
	if c.Output.Suffix == "" {
		c.Output.Suffix = "_cleaned"
	}
	if c.Output.Format == "" {
		c.Output.Format = "xlsx"
	}
	if c.Output.Order == "" {
		c.Output.Order = "first-seen"
	}
	if c.Progress.Enabled == nil {
		c.Progress.Enabled = boolPtr(true)
	}
	if c.Progress.Detailed == nil {
		c.Progress.Detailed = boolPtr(true)
	}
	if c.SQLite.Table == "" {
		c.SQLite.Table = "records"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Columns.Key) == "" {
		return fmt.Errorf("columns.key must not be blank")
	}
	if strings.TrimSpace(c.Columns.Score) == "" {
		return fmt.Errorf("columns.score must not be blank")
	}
	if c.Columns.Key == c.Columns.Score {
		return fmt.Errorf("columns.key and columns.score must differ, both are %q", c.Columns.Key)
	}
	if strings.ContainsAny(c.Output.Suffix, `/\`) {
		return fmt.Errorf("output.suffix must not contain path separators, got %q", c.Output.Suffix)
	}
	switch strings.ToLower(c.Output.Format) {
	case "xlsx", "csv", "tsv", "sqlite", "same":
	default:
		return fmt.Errorf("output.format must be one of xlsx, csv, tsv, sqlite, same, got %q", c.Output.Format)
	}
	switch c.Output.Order {
	case "first-seen", "source", "key":
	default:
		return fmt.Errorf("output.order must be one of first-seen, source, key, got %q", c.Output.Order)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}

// ProgressEnabled reports whether progress bars are shown.
func (c Config) ProgressEnabled() bool {
	return c.Progress.Enabled == nil || *c.Progress.Enabled
}

// ProgressDetailed reports whether the per-SN bar is shown.
func (c Config) ProgressDetailed() bool {
	return c.Progress.Detailed == nil || *c.Progress.Detailed
}

func boolPtr(b bool) *bool { return &b }

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
