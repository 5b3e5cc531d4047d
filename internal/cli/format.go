package cli

import (
	"errors"
	"io"
	"math"

	"github.com/leeovery/sndedup/internal/engine"
)

// Format represents the output format type.
type Format string

// Format constants for output selection.
const (
	FormatToon   Format = "toon"
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

// FormatConfig holds output configuration passed to handlers.
type FormatConfig struct {
	Format  Format
	Quiet   bool
	Verbose bool
}

// Formatter renders command results on stdout.
type Formatter interface {
	// FormatSummary renders the outcome of a completed clean run.
	FormatSummary(w io.Writer, s engine.Summary) error
	// FormatNotice renders an informational message such as a cancelled
	// selection.
	FormatNotice(w io.Writer, msg string) error
}

// ResolveFormat determines the output format from flags. Returns an error
// if more than one format flag is set. With no flag the summary is pretty.
func ResolveFormat(toonFlag, prettyFlag, jsonFlag bool) (Format, error) {
	count := 0
	for _, set := range []bool{toonFlag, prettyFlag, jsonFlag} {
		if set {
			count++
		}
	}
	if count > 1 {
		return "", errors.New("cannot specify multiple format flags (--toon, --pretty, --json)")
	}

	switch {
	case toonFlag:
		return FormatToon, nil
	case jsonFlag:
		return FormatJSON, nil
	default:
		return FormatPretty, nil
	}
}

// NewFormatConfig creates a FormatConfig from flags.
// Returns error if conflicting format flags are set.
func NewFormatConfig(toonFlag, prettyFlag, jsonFlag, quiet, verbose bool) (FormatConfig, error) {
	format, err := ResolveFormat(toonFlag, prettyFlag, jsonFlag)
	if err != nil {
		return FormatConfig{}, err
	}
	return FormatConfig{Format: format, Quiet: quiet, Verbose: verbose}, nil
}

// Formatter returns the Formatter for the configured format. Pretty output
// is styled for w.
func (c FormatConfig) Formatter(w io.Writer) Formatter {
	switch c.Format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatToon:
		return &ToonFormatter{}
	default:
		return NewPrettyFormatter(w, c.Quiet)
	}
}

// seconds returns the elapsed time rounded to hundredths of a second.
func seconds(s engine.Summary) float64 {
	return math.Round(s.Elapsed.Seconds()*100) / 100
}
