package shortlog

import (
	"sync"
	"time"
)

// Clock schedules callbacks. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// SystemClock runs callbacks on real timers.
var SystemClock Clock = systemClock{}

// Timer is a cancellable single-shot timer for one logical channel. At most
// one callback is pending at any time: scheduling cancels the previous one.
// The zero Timer uses SystemClock.
type Timer struct {
	mu      sync.Mutex
	clock   Clock
	pending Stopper
	gen     uint64
	stopped bool
}

// NewTimer returns a timer driven by clock.
func NewTimer(clock Clock) *Timer {
	return &Timer{clock: clock}
}

// Schedule runs fn after d, cancelling whatever was pending. It does nothing
// once the timer is stopped.
func (t *Timer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.cancelLocked()
	gen := t.gen
	clock := t.clock
	if clock == nil {
		clock = SystemClock
	}
	t.pending = clock.AfterFunc(d, func() {
		t.mu.Lock()
		// a stale callback can still fire if Stop lost the race
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.pending = nil
		t.gen++
		t.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback. Cancelling an idle timer is a no-op.
func (t *Timer) Cancel() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.cancelLocked()
	t.mu.Unlock()
}

// Stop cancels the pending callback and refuses all later ones.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.cancelLocked()
	t.stopped = true
	t.mu.Unlock()
}

// Stopped reports whether Stop was called.
func (t *Timer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *Timer) cancelLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}

// Pending reports whether a callback is scheduled.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// Debouncer delays an emission until a quiet period has passed, replacing
// any emission still waiting.
type Debouncer[T any] struct {
	timer Timer
	mu    sync.Mutex
	delay time.Duration
	emit  func(T)
}

// NewDebouncer creates a debouncer calling emit after delay. A delay of zero
// or less emits synchronously.
func NewDebouncer[T any](clock Clock, delay time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{timer: Timer{clock: clock}, delay: delay, emit: emit}
}

// SetDelay changes the delay for subsequent emissions.
func (d *Debouncer[T]) SetDelay(delay time.Duration) {
	d.mu.Lock()
	d.delay = delay
	d.mu.Unlock()
}

// Delay returns the current delay.
func (d *Debouncer[T]) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

// Schedule queues v for emission.
func (d *Debouncer[T]) Schedule(v T) {
	if d.timer.Stopped() {
		return
	}
	delay := d.Delay()
	if delay <= 0 {
		d.timer.Cancel()
		d.emit(v)
		return
	}
	d.timer.Schedule(delay, func() { d.emit(v) })
}

// Cancel drops a pending emission.
func (d *Debouncer[T]) Cancel() {
	if d == nil {
		return
	}
	d.timer.Cancel()
}

// Stop drops a pending emission and ignores every later Schedule.
func (d *Debouncer[T]) Stop() {
	if d == nil {
		return
	}
	d.timer.Stop()
}

// Pending reports whether an emission is waiting.
func (d *Debouncer[T]) Pending() bool {
	return d.timer.Pending()
}
