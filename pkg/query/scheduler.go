package query

import (
	"context"
	"sync"
	"time"
)

// Debouncer coalesces bursts of query changes into a single fetch. Wire
// it to an engine in Manual mode:
//
//	d := query.NewDebouncer(150*time.Millisecond, engine.Fetch)
//	cancel := engine.OnChange(d.Trigger)
type Debouncer struct {
	delay time.Duration
	fetch func(context.Context) error

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer builds a debouncer around a fetch function.
func NewDebouncer(delay time.Duration, fetch func(context.Context) error) *Debouncer {
	if delay <= 0 {
		delay = 150 * time.Millisecond
	}
	return &Debouncer{delay: delay, fetch: fetch}
}

// Trigger records a change; after the quiet period one fetch runs.
func (d *Debouncer) Trigger(change Change) {
	if !ShouldFetch(change) {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		_ = d.fetch(context.Background())
	})
}

// Stop cancels any pending fetch.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
