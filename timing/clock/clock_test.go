package clock_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/streambw/timing/clock"
)

// steppingClock advances by step on every reading.
func steppingClock(step time.Duration) clock.Clock {
	var now time.Duration
	return clock.Func(func() time.Duration {
		now += step
		return now
	})
}

// coarseClock advances one quantum every perTick readings.
func coarseClock(quantum time.Duration, perTick int) clock.Clock {
	calls := 0
	return clock.Func(func() time.Duration {
		calls++
		return time.Duration(calls/perTick) * quantum
	})
}

var _ = Describe("Clock", func() {
	Describe("Monotonic", func() {
		It("should never go backwards", func() {
			c := clock.Monotonic()
			prev := c.Now()
			for i := 0; i < 1000; i++ {
				now := c.Now()
				Expect(now).To(BeNumerically(">=", prev))
				prev = now
			}
		})

		It("should calibrate to a sub-millisecond resolution", func() {
			cal, err := clock.Calibrate(clock.Monotonic(), clock.DefaultSamples)
			Expect(err).NotTo(HaveOccurred())
			Expect(cal.Samples).To(Equal(clock.DefaultSamples))
			Expect(cal.Resolution).To(BeNumerically(">", 0))
			Expect(cal.Resolution).To(BeNumerically("<", time.Millisecond))
		})
	})

	Describe("Calibrate", func() {
		It("should find the step of a stepping clock", func() {
			cal, err := clock.Calibrate(steppingClock(250*time.Nanosecond), 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(cal.Resolution).To(Equal(250 * time.Nanosecond))
			Expect(cal.Samples).To(Equal(10))
		})

		It("should find the quantum of a coarse clock", func() {
			cal, err := clock.Calibrate(coarseClock(10*time.Millisecond, 1000), 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(cal.Resolution).To(Equal(10 * time.Millisecond))
		})

		It("should use the default sample count when given zero", func() {
			cal, err := clock.Calibrate(steppingClock(time.Microsecond), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(cal.Samples).To(Equal(clock.DefaultSamples))
		})

		It("should report a clock that never advances", func() {
			frozen := clock.Func(func() time.Duration { return 5 * time.Second })

			_, err := clock.Calibrate(frozen, 3)

			var terr *clock.TimerResolutionError
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.Stalled).To(BeTrue())
			Expect(terr.Error()).To(ContainSubstring("did not advance"))
		})
	})

	Describe("Calibration", func() {
		cal := clock.Calibration{Resolution: time.Microsecond}

		It("should count ticks", func() {
			Expect(cal.Ticks(50 * time.Microsecond)).To(Equal(int64(50)))
			Expect(cal.Ticks(500 * time.Nanosecond)).To(Equal(int64(0)))
		})

		It("should accept passes of at least twenty ticks", func() {
			Expect(cal.Adequate(20 * time.Microsecond)).To(BeTrue())
			Expect(cal.Check(20 * time.Microsecond)).To(Succeed())
		})

		It("should reject passes shorter than twenty ticks", func() {
			err := cal.Check(19 * time.Microsecond)

			var terr *clock.TimerResolutionError
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.Ticks).To(Equal(int64(19)))
			Expect(terr.Typical).To(Equal(19 * time.Microsecond))
			Expect(terr.Error()).To(ContainSubstring("need 20"))
		})

		It("should treat an uncalibrated clock as inadequate", func() {
			Expect(clock.Calibration{}.Adequate(time.Second)).To(BeFalse())
		})
	})
})
