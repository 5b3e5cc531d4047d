// Package progress provides the optional progress capability used by the
// pipeline. Reporting never changes behavior and never fails a run.
package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Progress receives progress updates.
type Progress interface {
	// Advance records n more completed units.
	Advance(n int)
	// Done marks the tracked work as finished.
	Done()
}

// Factory creates a Progress over total units with a description.
type Factory func(total int, desc string) Progress

// Nop is a Progress that does nothing.
type Nop struct{}

func (Nop) Advance(int) {}
func (Nop) Done()       {}

// NopFactory returns Nop for every request.
func NopFactory(int, string) Progress { return Nop{} }

// Bar renders a terminal progress bar.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar creates a Bar writing to w.
func NewBar(w io.Writer, total int, desc string) *Bar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
	)
	return &Bar{bar: bar}
}

// BarFactory returns a Factory producing bars on w.
func BarFactory(w io.Writer) Factory {
	return func(total int, desc string) Progress {
		return NewBar(w, total, desc)
	}
}

// Advance moves the bar forward. Render errors are ignored.
func (b *Bar) Advance(n int) {
	_ = b.bar.Add(n)
}

// Done completes the bar.
func (b *Bar) Done() {
	_ = b.bar.Finish()
}
