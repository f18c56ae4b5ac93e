package runner_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/streambw/config"
	"github.com/sarchlab/streambw/kernels"
	"github.com/sarchlab/streambw/runner"
	"github.com/sarchlab/streambw/timing/clock"
)

func newVectors(n int, seeds config.Seeds) kernels.Vectors {
	v := kernels.Vectors{
		A: make([]float64, n),
		B: make([]float64, n),
		C: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		v.A[i], v.B[i], v.C[i] = seeds.A, seeds.B, seeds.C
	}
	return v
}

// steppingClock advances by step on every reading.
func steppingClock(step time.Duration) clock.Clock {
	var now time.Duration
	return clock.Func(func() time.Duration {
		now += step
		return now
	})
}

var _ = Describe("Runner", func() {
	var exec *kernels.Executor

	BeforeEach(func() {
		exec = kernels.NewExecutor(4)
	})

	It("should produce the one-iteration values", func() {
		v := newVectors(1000, config.DefaultSeeds())
		r := runner.New(clock.Monotonic(), exec)

		m, err := r.Run(v, 3.0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Iterations).To(Equal(1))

		Expect(v.A).To(HaveEach(15.0))
		Expect(v.B).To(HaveEach(3.0))
		Expect(v.C).To(HaveEach(4.0))
	})

	It("should continue the sequence when run again", func() {
		const n, m = 256, 4
		twice := newVectors(n, config.DefaultSeeds())
		once := newVectors(n, config.DefaultSeeds())
		r := runner.New(clock.Monotonic(), exec)

		_, err := r.Run(twice, 0.5, m)
		Expect(err).NotTo(HaveOccurred())
		_, err = r.Run(twice, 0.5, m)
		Expect(err).NotTo(HaveOccurred())

		_, err = r.Run(once, 0.5, 2*m)
		Expect(err).NotTo(HaveOccurred())

		Expect(twice.A).To(Equal(once.A))
		Expect(twice.B).To(Equal(once.B))
		Expect(twice.C).To(Equal(once.C))
	})

	It("should record one sample per kernel per iteration", func() {
		v := newVectors(64, config.DefaultSeeds())
		r := runner.New(steppingClock(time.Microsecond), exec)

		m, err := r.Run(v, 3.0, 5)
		Expect(err).NotTo(HaveOccurred())

		for _, k := range kernels.All() {
			Expect(m.Kernel(k)).To(HaveLen(5))
			Expect(m.Kernel(k)).To(HaveEach(time.Microsecond))
			Expect(m.Measured(k)).To(HaveLen(4))
		}
		Expect(m.WarmupIncluded()).To(BeFalse())
	})

	It("should reject a non-positive iteration count", func() {
		r := runner.New(clock.Monotonic(), exec)
		_, err := r.Run(newVectors(8, config.DefaultSeeds()), 3.0, 0)

		var cerr *config.ConfigurationError
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(cerr.Field).To(Equal("iterations"))
	})
})

var _ = Describe("TimingMatrix", func() {
	It("should keep the warm-up out of the measured samples", func() {
		m := runner.NewTimingMatrix(3)
		m.Record(kernels.Copy, 0, time.Second)
		m.Record(kernels.Copy, 1, 2*time.Millisecond)
		m.Record(kernels.Copy, 2, 3*time.Millisecond)

		Expect(m.Measured(kernels.Copy)).To(Equal(
			[]time.Duration{2 * time.Millisecond, 3 * time.Millisecond}))
	})

	It("should measure the warm-up when it is the only iteration", func() {
		m := runner.NewTimingMatrix(1)
		m.Record(kernels.Triad, 0, time.Millisecond)

		Expect(m.WarmupIncluded()).To(BeTrue())
		Expect(m.Measured(kernels.Triad)).To(Equal([]time.Duration{time.Millisecond}))
	})

	It("should report the median measured pass as typical", func() {
		m := runner.NewTimingMatrix(2)
		for i, k := range kernels.All() {
			m.Record(k, 0, time.Hour)
			m.Record(k, 1, time.Duration(i+1)*time.Millisecond)
		}

		Expect(m.Typical()).To(BeNumerically("~", 2*time.Millisecond, time.Microsecond))
	})
})

var _ = Describe("CheckResolution", func() {
	It("should accept passes that span many ticks", func() {
		m := runner.NewTimingMatrix(2)
		for _, k := range kernels.All() {
			m.Record(k, 1, time.Millisecond)
		}
		cal := clock.Calibration{Resolution: time.Microsecond}

		Expect(runner.CheckResolution(m, cal)).To(Succeed())
	})

	It("should flag a clock coarser than the kernel runtime while the arrays stay correct", func() {
		// One full second per reading: every pass looks like a single tick.
		coarse := steppingClock(time.Second)
		cal, err := clock.Calibrate(coarse, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(cal.Resolution).To(Equal(time.Second))

		v := newVectors(1000, config.DefaultSeeds())
		m, err := runner.New(coarse, kernels.NewExecutor(2)).Run(v, 3.0, 1)
		Expect(err).NotTo(HaveOccurred())

		err = runner.CheckResolution(m, cal)
		var terr *clock.TimerResolutionError
		Expect(errors.As(err, &terr)).To(BeTrue())
		Expect(terr.Ticks).To(BeNumerically("<", clock.MinTicks))

		Expect(v.A).To(HaveEach(15.0))
		Expect(v.B).To(HaveEach(3.0))
		Expect(v.C).To(HaveEach(4.0))
	})
})
