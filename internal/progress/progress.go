// Package progress draws terminal progress for long check runs.
package progress

import (
	"fmt"
	"io"

	"github.com/panbanda/cogmark/pkg/analyzer"
	"github.com/schollz/progressbar/v3"
)

// Bar wraps a progress bar fed by analyzer events.
type Bar struct {
	bar   *progressbar.ProgressBar
	w     io.Writer
	label string
}

// NewSpinner creates a spinner for steps with no known file count, such as
// discovery.
func NewSpinner(w io.Writer, label string) *Bar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Bar{bar: bar, w: w, label: label}
}

// New creates a bar for total files.
func New(w io.Writer, label string, total int) *Bar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Bar{bar: bar, w: w, label: label}
}

// Observe advances the bar by one file. It matches analyzer.ProgressFunc and
// is safe for concurrent use.
func (b *Bar) Observe(e analyzer.Event) {
	if e.Failed > 0 {
		b.bar.Describe(fmt.Sprintf("%s (%d failed)", b.label, e.Failed))
	}
	_ = b.bar.Add(1)
}

// Tracker returns an analyzer tracker that drives the bar.
func (b *Bar) Tracker() *analyzer.Tracker {
	return analyzer.NewTracker(b.Observe)
}

// Percent returns the completed fraction in [0, 1].
func (b *Bar) Percent() float64 {
	return b.bar.State().CurrentPercent
}

// Finish completes the bar and ends its line. When files failed it leaves a
// one-line note.
func (b *Bar) Finish(failed int) {
	_ = b.bar.Finish()
	fmt.Fprintln(b.w)
	if failed > 0 {
		fmt.Fprintf(b.w, "%s: %d file(s) could not be analyzed\n", b.label, failed)
	}
}
