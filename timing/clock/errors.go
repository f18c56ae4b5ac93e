package clock

import (
	"fmt"
	"time"
)

// TimerResolutionError reports that the clock is too coarse for the kernel
// passes being timed. It invalidates the bandwidth figures but not the
// array contents.
type TimerResolutionError struct {
	Resolution time.Duration
	Typical    time.Duration
	Ticks      int64
	Reason     string

	// Stalled is set when calibration saw the clock stop advancing.
	Stalled bool
}

// Error implements the error interface.
func (e *TimerResolutionError) Error() string {
	if e.Stalled {
		return fmt.Sprintf("insufficient timer resolution: %s (resolution %v)", e.Reason, e.Resolution)
	}
	return fmt.Sprintf("insufficient timer resolution: %s (resolution %v, typical pass %v = %d ticks, need %d)",
		e.Reason, e.Resolution, e.Typical, e.Ticks, MinTicks)
}
