// Package debounce delays an action until a quiet period has elapsed since
// the last trigger.
package debounce

import (
	"sync"
	"time"
)

type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger (re)starts the quiet period. fn runs once the period elapses
// without another Trigger.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops a pending run, if any.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Flush runs a pending action immediately on the caller's goroutine.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.cancelLocked()
	d.mu.Unlock()

	if pending {
		d.fn()
	}
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending run and ignores future triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// cancelLocked reports whether a run was pending. A timer that already fired
// but has not taken the lock yet still counts; bumping gen makes it a no-op.
func (d *Debouncer) cancelLocked() bool {
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// fire runs fn only for the latest Trigger.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || d.timer == nil || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}
