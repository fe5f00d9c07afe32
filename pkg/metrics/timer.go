package metrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

// Timer records durations in milliseconds into a distribution view.
type Timer struct {
	measureMs *stats.Float64Measure
	view      *view.View
}

// NewTimerMs creates and registers a Timer. Registering two timers with the
// same name panics.
func NewTimerMs(name, desc string) *Timer {
	fMeasure := stats.Float64(name, desc, stats.UnitMilliseconds)
	fView := &view.View{
		Name:        name,
		Measure:     fMeasure,
		Description: desc,
		Aggregation: view.Distribution(0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000),
	}
	if err := view.Register(fView); err != nil {
		panic(err)
	}
	return &Timer{
		measureMs: fMeasure,
		view:      fView,
	}
}

// Start starts a Stopwatch.
func (t *Timer) Start(ctx context.Context) *Stopwatch {
	return &Stopwatch{
		start:    time.Now(),
		recorder: t.measureMs,
	}
}

// Unregister removes the timer's view.
func (t *Timer) Unregister() {
	view.Unregister(t.view)
}

// Stopwatch measures one duration.
type Stopwatch struct {
	start    time.Time
	recorder *stats.Float64Measure
}

// Stop records the elapsed time since Start and returns it.
func (sw *Stopwatch) Stop(ctx context.Context) time.Duration {
	d := time.Since(sw.start)
	stats.Record(ctx, sw.recorder.M(float64(d)/float64(time.Millisecond)))
	return d
}
