package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CollapsesBurst(t *testing.T) {
	var calls atomic.Int32
	d := New(30*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(80 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("fn called %d times, want 1", got)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var calls atomic.Int32
	d := New(time.Hour, func() { calls.Add(1) })

	d.Flush()
	if calls.Load() != 0 {
		t.Fatalf("Flush() without pending trigger should not run fn")
	}

	d.Trigger()
	if !d.Pending() {
		t.Fatalf("Pending() = false after Trigger")
	}
	d.Flush()
	if calls.Load() != 1 {
		t.Errorf("Flush() should run the pending fn once, got %d", calls.Load())
	}
	if d.Pending() {
		t.Errorf("Pending() = true after Flush")
	}
}

func TestDebouncer_CancelAndStop(t *testing.T) {
	var calls atomic.Int32
	d := New(20*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	if !d.Cancel() {
		t.Errorf("Cancel() = false with a pending run")
	}
	d.Stop()
	d.Trigger()
	time.Sleep(50 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("fn ran %d times after Cancel/Stop", calls.Load())
	}
}

func TestDebouncer_StaleFireKeepsQuietPeriod(t *testing.T) {
	var calls atomic.Int32
	d := New(time.Hour, func() { calls.Add(1) })

	d.Trigger()
	stale := d.gen
	d.Trigger()

	// A timer from the first Trigger that fired before the second one took
	// the lock must not run fn or consume the newer timer.
	d.fire(stale)
	if calls.Load() != 0 {
		t.Fatalf("stale timer ran fn")
	}
	if !d.Pending() {
		t.Fatalf("latest trigger should still be pending")
	}

	d.fire(d.gen)
	if calls.Load() != 1 || d.Pending() {
		t.Errorf("calls = %d, pending = %v", calls.Load(), d.Pending())
	}
}
