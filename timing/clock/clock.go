// Package clock provides the monotonic timer used to measure kernel passes
// and the startup calibration that decides whether it is fine enough.
package clock

import "time"

// MinTicks is the number of clock ticks a kernel pass must span for its
// timing to be trusted.
const MinTicks = 20

// Clock is a monotonic time source. Now returns the time elapsed since an
// arbitrary fixed origin.
type Clock interface {
	Now() time.Duration
}

// monotonic reads the runtime's monotonic clock.
type monotonic struct {
	origin time.Time
}

// Monotonic returns a Clock backed by the Go runtime's monotonic clock.
func Monotonic() Clock {
	return &monotonic{origin: time.Now()}
}

// Now returns the time since the clock was created.
func (m *monotonic) Now() time.Duration {
	return time.Since(m.origin)
}

// Func adapts an ordinary function to the Clock interface.
type Func func() time.Duration

// Now calls f.
func (f Func) Now() time.Duration {
	return f()
}
