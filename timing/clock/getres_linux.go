//go:build linux

package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

// reportedResolution asks the kernel for the resolution of CLOCK_MONOTONIC,
// which backs the Go runtime's monotonic clock on Linux.
func reportedResolution() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGetres(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}
