package shortlog

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// manualClock fires callbacks only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward by d, running due callbacks in deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// Pending counts timers that have neither fired nor been stopped.
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func TestTimer(t *testing.T) {
	t.Run("fires after delay", func(t *testing.T) {
		clock := &manualClock{}
		tm := NewTimer(clock)
		fired := 0
		tm.Schedule(100*time.Millisecond, func() { fired++ })

		clock.Advance(99 * time.Millisecond)
		if fired != 0 {
			t.Fatalf("expected no fire before deadline, got %d", fired)
		}
		if !tm.Pending() {
			t.Error("expected timer pending")
		}
		clock.Advance(time.Millisecond)
		if fired != 1 {
			t.Errorf("expected 1 fire, got %d", fired)
		}
		if tm.Pending() {
			t.Error("expected timer idle after firing")
		}
	})

	t.Run("reschedule replaces pending", func(t *testing.T) {
		clock := &manualClock{}
		tm := NewTimer(clock)
		var got []string
		tm.Schedule(50*time.Millisecond, func() { got = append(got, "first") })
		tm.Schedule(50*time.Millisecond, func() { got = append(got, "second") })

		clock.Advance(time.Second)
		if len(got) != 1 || got[0] != "second" {
			t.Errorf("expected only [second], got %v", got)
		}
		if clock.Pending() != 0 {
			t.Errorf("expected no pending timers, got %d", clock.Pending())
		}
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		clock := &manualClock{}
		tm := NewTimer(clock)
		fired := false
		tm.Schedule(10*time.Millisecond, func() { fired = true })
		tm.Cancel()
		tm.Cancel()
		clock.Advance(time.Second)
		if fired {
			t.Error("expected cancelled callback not to run")
		}

		var nilTimer *Timer
		nilTimer.Cancel()
	})

	t.Run("stop refuses later schedules", func(t *testing.T) {
		clock := &manualClock{}
		tm := NewTimer(clock)
		fired := 0
		tm.Schedule(10*time.Millisecond, func() { fired++ })
		tm.Stop()
		tm.Schedule(10*time.Millisecond, func() { fired++ })
		clock.Advance(time.Second)
		if fired != 0 || clock.Pending() != 0 || !tm.Stopped() {
			t.Errorf("expected stopped timer to stay idle, got %d fires, %d pending", fired, clock.Pending())
		}

		var nilTimer *Timer
		nilTimer.Stop()
	})

	t.Run("stale callback ignored", func(t *testing.T) {
		// a clock whose Stop always loses the race
		clock := &manualClock{}
		tm := NewTimer(clock)
		fired := 0
		tm.Schedule(10*time.Millisecond, func() { fired++ })
		stale := clock.timers[0]
		tm.Cancel()
		stale.f()
		if fired != 0 {
			t.Errorf("expected stale callback dropped, got %d fires", fired)
		}
	})
}

func TestDebouncer(t *testing.T) {
	t.Run("stop silences both paths", func(t *testing.T) {
		clock := &manualClock{}
		var got []int
		d := NewDebouncer(clock, 0, func(v int) { got = append(got, v) })
		d.Stop()
		d.Schedule(1)
		d.SetDelay(50 * time.Millisecond)
		d.Schedule(2)
		clock.Advance(time.Second)
		if len(got) != 0 || d.Pending() {
			t.Errorf("expected nothing emitted after stop, got %v", got)
		}
	})

	t.Run("only last value emitted", func(t *testing.T) {
		clock := &manualClock{}
		var got []int
		d := NewDebouncer(clock, 120*time.Millisecond, func(v int) { got = append(got, v) })

		d.Schedule(1)
		clock.Advance(60 * time.Millisecond)
		d.Schedule(2)
		clock.Advance(60 * time.Millisecond)
		d.Schedule(3)
		if len(got) != 0 {
			t.Fatalf("expected nothing emitted yet, got %v", got)
		}
		clock.Advance(120 * time.Millisecond)
		if len(got) != 1 || got[0] != 3 {
			t.Errorf("expected [3], got %v", got)
		}
	})

	t.Run("zero delay emits synchronously", func(t *testing.T) {
		clock := &manualClock{}
		var got []int
		d := NewDebouncer(clock, 0, func(v int) { got = append(got, v) })
		d.Schedule(7)
		if len(got) != 1 || got[0] != 7 {
			t.Errorf("expected [7], got %v", got)
		}
		if d.Pending() {
			t.Error("expected nothing pending")
		}
	})

	t.Run("set delay", func(t *testing.T) {
		clock := &manualClock{}
		var got []int
		d := NewDebouncer(clock, 200*time.Millisecond, func(v int) { got = append(got, v) })
		d.SetDelay(10 * time.Millisecond)
		if d.Delay() != 10*time.Millisecond {
			t.Fatalf("expected 10ms, got %v", d.Delay())
		}
		d.Schedule(1)
		clock.Advance(10 * time.Millisecond)
		if len(got) != 1 {
			t.Errorf("expected emit after new delay, got %v", got)
		}
	})

	t.Run("cancel drops pending", func(t *testing.T) {
		clock := &manualClock{}
		var got []int
		d := NewDebouncer(clock, 50*time.Millisecond, func(v int) { got = append(got, v) })
		d.Schedule(1)
		d.Cancel()
		clock.Advance(time.Second)
		if len(got) != 0 {
			t.Errorf("expected nothing emitted, got %v", got)
		}
	})
}
