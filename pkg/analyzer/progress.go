package analyzer

import (
	"context"
	"sync/atomic"
)

// Event describes one finished file.
type Event struct {
	Done   int
	Total  int
	Failed int
	Path   string
	// Err is set when the file could not be analyzed.
	Err error
}

// ProgressFunc receives an Event per finished file. It may be called from
// several goroutines at once.
type ProgressFunc func(Event)

// Tracker counts finished files. It is safe for concurrent use.
type Tracker struct {
	total    atomic.Int64
	done     atomic.Int64
	failed   atomic.Int64
	callback ProgressFunc
}

// NewTracker returns a tracker that reports to callback, which may be nil.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Add grows the expected file count by n.
func (t *Tracker) Add(n int) {
	t.total.Add(int64(n))
}

// Done records that path finished. A non-nil err counts it as failed.
func (t *Tracker) Done(path string, err error) {
	done := t.done.Add(1)
	failed := t.failed.Load()
	if err != nil {
		failed = t.failed.Add(1)
	}
	if t.callback == nil {
		return
	}
	t.callback(Event{
		Done:   int(done),
		Total:  int(t.total.Load()),
		Failed: int(failed),
		Path:   path,
		Err:    err,
	})
}

// Current returns the number of finished files.
func (t *Tracker) Current() int {
	return int(t.done.Load())
}

// Total returns the expected file count.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

// Failed returns the number of files that finished with an error.
func (t *Tracker) Failed() int {
	return int(t.failed.Load())
}

type trackerKey struct{}

// WithTracker returns a context carrying t.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker carried by ctx, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
