package capture

import "time"

// Clock is the time source for reset settles and capture windows.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Window bounds a capture by an absolute deadline.
type Window struct {
	Start    time.Time
	Deadline time.Time
}

// NewWindow starts a window of length d at clock.Now()
func NewWindow(clock Clock, d time.Duration) Window {
	now := clock.Now()
	return Window{Start: now, Deadline: now.Add(d)}
}

// Open reports whether now is still before the deadline
func (w Window) Open(now time.Time) bool {
	return now.Before(w.Deadline)
}

// Remaining is the time left at now, never negative
func (w Window) Remaining(now time.Time) time.Duration {
	if d := w.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}
