package clock

import "time"

// DefaultSamples is the number of distinct clock transitions Calibrate
// observes.
const DefaultSamples = 20

// maxSpins bounds how long Calibrate waits for a single transition before
// deciding the clock is stuck.
const maxSpins = 1 << 24

// Calibration is the measured quality of a Clock. It is computed once at
// startup and passed explicitly to whoever needs it.
type Calibration struct {
	// Resolution is the smallest positive difference observed between two
	// successive readings.
	Resolution time.Duration

	// Reported is the resolution the operating system claims for its
	// monotonic clock, or zero if it could not be queried.
	Reported time.Duration

	// Samples is the number of transitions Resolution was derived from.
	Samples int
}

// Calibrate measures the granularity of c by watching it advance samples
// times. A clock that never advances yields a *TimerResolutionError.
func Calibrate(c Clock, samples int) (Calibration, error) {
	if samples <= 0 {
		samples = DefaultSamples
	}

	cal := Calibration{Reported: reportedResolution()}

	var best time.Duration
	for i := 0; i < samples; i++ {
		t0 := c.Now()
		t1 := t0
		for spins := 0; t1 <= t0; spins++ {
			if spins >= maxSpins {
				return cal, &TimerResolutionError{Resolution: best, Stalled: true, Reason: "clock did not advance"}
			}
			t1 = c.Now()
		}

		delta := t1 - t0
		if best == 0 || delta < best {
			best = delta
		}
		cal.Samples++
	}

	cal.Resolution = best
	return cal, nil
}

// Ticks returns how many clock ticks d spans.
func (c Calibration) Ticks(d time.Duration) int64 {
	if c.Resolution <= 0 {
		return 0
	}
	return int64(d / c.Resolution)
}

// Adequate reports whether a kernel pass lasting d spans at least MinTicks
// ticks of the clock.
func (c Calibration) Adequate(d time.Duration) bool {
	return c.Ticks(d) >= MinTicks
}

// Check returns a *TimerResolutionError if a typical kernel pass of
// duration typical is too short to be measured by this clock.
func (c Calibration) Check(typical time.Duration) error {
	if c.Adequate(typical) {
		return nil
	}
	return &TimerResolutionError{
		Resolution: c.Resolution,
		Typical:    typical,
		Ticks:      c.Ticks(typical),
		Reason:     "kernel passes span too few clock ticks",
	}
}
