package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/leeovery/sndedup/internal/engine"
)

// PrettyFormatter writes the human-readable summary lines. Prefixes are
// coloured when the writer is a terminal and plain otherwise.
type PrettyFormatter struct {
	quiet bool
	ok    lipgloss.Style
	info  lipgloss.Style
	done  lipgloss.Style
}

// NewPrettyFormatter creates a PrettyFormatter styled for w. When quiet,
// the summary is reduced to the output path.
func NewPrettyFormatter(w io.Writer, quiet bool) *PrettyFormatter {
	r := lipgloss.NewRenderer(w)
	return &PrettyFormatter{
		quiet: quiet,
		ok:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		info:  r.NewStyle().Foreground(lipgloss.Color("6")),
		done:  r.NewStyle().Bold(true),
	}
}

// FormatSummary writes:
//
//	OK: Cleaned file saved as: <path>
//	INFO: <n> rows removed (kept highest '<score>' per <key>).
//	DONE in <s.ss>s
func (f *PrettyFormatter) FormatSummary(w io.Writer, s engine.Summary) error {
	if f.quiet {
		_, err := fmt.Fprintln(w, s.Output)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s Cleaned file saved as: %s\n", f.ok.Render("OK:"), s.Output); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %d rows removed (kept highest '%s' per %s).\n", f.info.Render("INFO:"), s.Removed, s.Score, s.Key); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s in %.2fs\n", f.done.Render("DONE"), s.Elapsed.Seconds())
	return err
}

// FormatNotice writes msg with an INFO prefix.
func (f *PrettyFormatter) FormatNotice(w io.Writer, msg string) error {
	_, err := fmt.Fprintf(w, "%s %s\n", f.info.Render("INFO:"), msg)
	return err
}
