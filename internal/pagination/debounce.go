package pagination

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet interval used for search input.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer runs a function once a quiet interval has elapsed since the last
// Start. Starting again while a run is pending cancels the pending run.
//
// Debouncer is safe for concurrent use.
type Debouncer struct {
	interval time.Duration

	mu    sync.Mutex
	timer *time.Timer
	fn    func()
	gen   uint64 // bumped on every Start/Reset/Cancel; a firing timer with an old gen does nothing
}

// NewDebouncer creates a debouncer. Non-positive intervals fall back to
// DefaultDebounce.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Debouncer{interval: interval}
}

// Interval returns the quiet interval.
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}

// Start schedules fn to run after the quiet interval, replacing any pending
// function.
func (d *Debouncer) Start(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fn = fn
	d.armLocked()
}

// Reset restarts the timer for the pending function. It does nothing when
// nothing is pending.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil || d.fn == nil {
		return
	}
	d.armLocked()
}

// Cancel drops the pending function. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	pending := d.timer != nil
	d.stopLocked()
	d.fn = nil
	d.gen++
	return pending
}

// Pending reports whether a function is waiting for the interval to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) armLocked() {
	d.stopLocked()
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.interval, func() { d.fire(gen) })
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	fn := d.fn
	d.fn = nil
	d.timer = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}
