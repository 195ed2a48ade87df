// Package ratelimit provides a sliding-window request counter used to budget calls
// to remote translation providers.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultPeriod is the rolling window every provider budget is expressed in.
const DefaultPeriod = time.Minute

// Clock is the time source of a Window.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// Window admits at most limit calls in any rolling period.
// Admission is a single critical section, so concurrent callers never over-admit.
type Window struct {
	mu         sync.Mutex
	limit      int
	period     time.Duration
	clock      Clock
	timestamps []time.Time
}

type Option func(*Window)

func WithClock(clock Clock) Option {
	return func(w *Window) {
		w.clock = clock
	}
}

func WithPeriod(period time.Duration) Option {
	return func(w *Window) {
		w.period = period
	}
}

func NewWindow(limit int, opts ...Option) *Window {
	if limit < 0 {
		limit = 0
	}
	w := &Window{
		limit:  limit,
		period: DefaultPeriod,
		clock:  SystemClock,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.timestamps = make([]time.Time, 0, limit)
	return w
}

// Admit records a call and returns true if the window has room; otherwise it returns false
// and records nothing.
func (w *Window) Admit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.prune()
	if len(w.timestamps) >= w.limit {
		return false
	}
	if n := len(w.timestamps); n > 0 && now.Before(w.timestamps[n-1]) {
		now = w.timestamps[n-1]
	}
	w.timestamps = append(w.timestamps, now)
	return true
}

// Release gives back the most recent admission, for a call that was admitted but never made.
func (w *Window) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if n := len(w.timestamps); n > 0 {
		w.timestamps = w.timestamps[:n-1]
	}
}

// HasRoom reports whether Admit would currently succeed, without recording a call.
func (w *Window) HasRoom() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune()
	return len(w.timestamps) < w.limit
}

// Wait returns how long until the oldest recorded call leaves the window.
// It is zero when the window has room.
func (w *Window) Wait() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.prune()
	if len(w.timestamps) < w.limit {
		return 0
	}
	if len(w.timestamps) == 0 {
		// limit is zero; nothing will ever free a slot
		return w.period
	}
	return w.timestamps[0].Add(w.period).Sub(now)
}

// Used returns the number of calls recorded in the current window.
func (w *Window) Used() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune()
	return len(w.timestamps)
}

func (w *Window) Limit() int {
	return w.limit
}

// prune drops timestamps that are a full period old. Callers hold w.mu.
func (w *Window) prune() time.Time {
	now := w.clock.Now()
	i := 0
	for i < len(w.timestamps) && now.Sub(w.timestamps[i]) >= w.period {
		i++
	}
	if i > 0 {
		w.timestamps = append(w.timestamps[:0], w.timestamps[i:]...)
	}
	return now
}
