package filter

import (
	"sync"
	"time"
)

// Debouncer runs the last function passed to Debounce once no new call has arrived for
// the configured delay.
type Debouncer struct {
	mu         sync.Mutex
	timer      *time.Timer
	delay      time.Duration
	generation uint64
	pending    func()
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Debounce schedules fn and drops whatever was scheduled before. A timer that already
// fired but lost the race for the lock sees a newer generation and does nothing.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	generation := d.generation
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if generation != d.generation || d.pending == nil {
			d.mu.Unlock()
			return
		}
		run := d.pending
		d.pending = nil
		d.timer = nil
		d.mu.Unlock()

		run()
	})
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
	d.pending = nil
}

// Flush runs the pending call now instead of waiting for the delay. It reports whether
// there was anything to run.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	run := d.pending
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
	d.pending = nil
	d.mu.Unlock()

	if run == nil {
		return false
	}
	run()
	return true
}
