// Package debounce provides a cancelable trailing-edge debouncer.
//
// At most one value is pending at any time: triggering again replaces the
// pending value and restarts the delay, and a replaced timer never fires even
// if it had already expired when it was replaced.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delivers the last value passed to Trigger once no new value has
// arrived for the configured delay.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	gen     uint64
	value   T
	pending bool
	stopped bool
}

// New creates a debouncer that calls fn with the settled value.
// A zero delay calls fn synchronously from Trigger.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger schedules v, replacing any value that has not fired yet.
// It reports false if the debouncer has been stopped.
func (d *Debouncer[T]) Trigger(v T) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}

	d.stopTimerLocked()
	d.gen++

	if d.delay <= 0 {
		d.pending = false
		d.mu.Unlock()
		d.fn(v)
		return true
	}

	d.value = v
	d.pending = true
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
	d.mu.Unlock()
	return true
}

// Flush fires the pending value immediately. It reports whether a value was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return false
	}
	d.stopTimerLocked()
	d.gen++
	v := d.value
	d.clearLocked()
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Cancel drops the pending value without firing it.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
	d.gen++
	d.clearLocked()
}

// Pending reports whether a value is waiting to fire.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels the pending value and rejects later triggers.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
	d.gen++
	d.clearLocked()
	d.stopped = true
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.clearLocked()
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

func (d *Debouncer[T]) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) clearLocked() {
	var zero T
	d.value = zero
	d.pending = false
}
