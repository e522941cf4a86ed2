package app

import (
	"context"
	"sync"
	"time"
)

// DefaultDuration is the countdown length of one quiz attempt.
const DefaultDuration = 900 * time.Second

// TickSource produces one value per elapsed second. The returned stop
// function releases the underlying ticker.
type TickSource func() (<-chan time.Time, func())

// SecondTicker is the production TickSource backed by time.Ticker.
func SecondTicker() (<-chan time.Time, func()) {
	t := time.NewTicker(time.Second)
	return t.C, t.Stop
}

// Timer counts down whole seconds while a quiz is active. Every Start
// acquires a fresh run; ticks belonging to a run that has been stopped or
// replaced are discarded before they can touch the counter.
type Timer struct {
	total  int
	source TickSource

	mu        sync.Mutex
	remaining int
	run       *timerRun
}

type timerRun struct {
	cancel context.CancelFunc
}

// NewTimer creates a stopped timer. A nil source falls back to SecondTicker.
func NewTimer(d time.Duration, source TickSource) *Timer {
	if source == nil {
		source = SecondTicker
	}
	total := int(d / time.Second)
	if total < 0 {
		total = 0
	}
	return &Timer{total: total, source: source, remaining: total}
}

// Start resets the countdown to the full duration and begins ticking.
// onTick receives the remaining seconds after every decrement; onExpire is
// invoked exactly once if the countdown reaches zero. Both run on the timer
// goroutine without the timer lock held.
func (t *Timer) Start(onTick func(remaining int), onExpire func()) {
	ctx, cancel := context.WithCancel(context.Background())
	run := &timerRun{cancel: cancel}

	t.mu.Lock()
	t.stopLocked()
	t.remaining = t.total
	t.run = run
	t.mu.Unlock()

	ticks, stop := t.source()
	go t.loop(ctx, run, ticks, stop, onTick, onExpire)
}

func (t *Timer) loop(ctx context.Context, run *timerRun, ticks <-chan time.Time, stop func(), onTick func(int), onExpire func()) {
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
		}

		t.mu.Lock()
		if t.run != run {
			t.mu.Unlock()
			return
		}
		if t.remaining > 0 {
			t.remaining--
		}
		remaining := t.remaining
		expired := remaining == 0
		if expired {
			t.stopLocked()
		}
		t.mu.Unlock()

		if onTick != nil {
			onTick(remaining)
		}
		if expired {
			if onExpire != nil {
				onExpire()
			}
			return
		}
	}
}

// Stop cancels the current run. After Stop returns no tick from that run
// decrements the counter.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()
}

func (t *Timer) stopLocked() {
	if t.run == nil {
		return
	}
	t.run.cancel()
	t.run = nil
}

// Reset stops the timer and restores the full duration.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.stopLocked()
	t.remaining = t.total
	t.mu.Unlock()
}

// Remaining returns the seconds left on the countdown.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Running reports whether a run is in progress.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run != nil
}

// Total returns the full countdown length in seconds.
func (t *Timer) Total() int {
	return t.total
}
