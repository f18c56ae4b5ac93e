package report_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/streambw/config"
	"github.com/sarchlab/streambw/kernels"
	"github.com/sarchlab/streambw/report"
	"github.com/sarchlab/streambw/runner"
	"github.com/sarchlab/streambw/timing/clock"
	"github.com/sarchlab/streambw/validate"
)

func matrixOf(iterations int, d func(k kernels.Kernel, i int) time.Duration) *runner.TimingMatrix {
	m := runner.NewTimingMatrix(iterations)
	for _, k := range kernels.All() {
		for i := 0; i < iterations; i++ {
			m.Record(k, i, d(k, i))
		}
	}
	return m
}

var _ = Describe("Summarize", func() {
	It("should compute bytes per kernel from the arrays touched", func() {
		m := matrixOf(2, func(kernels.Kernel, int) time.Duration { return time.Millisecond })
		s := report.Summarize(m, 1000, config.ElementSize)

		Expect(s.Row(kernels.Copy).Bytes).To(Equal(uint64(16_000)))
		Expect(s.Row(kernels.Scale).Bytes).To(Equal(uint64(16_000)))
		Expect(s.Row(kernels.Add).Bytes).To(Equal(uint64(24_000)))
		Expect(s.Row(kernels.Triad).Bytes).To(Equal(uint64(24_000)))
	})

	It("should exclude the warm-up iteration", func() {
		m := matrixOf(4, func(_ kernels.Kernel, i int) time.Duration {
			if i == 0 {
				return time.Nanosecond
			}
			return time.Duration(i) * time.Millisecond
		})
		s := report.Summarize(m, 1000, config.ElementSize)

		r := s.Row(kernels.Copy)
		Expect(r.MinTime).To(Equal(time.Millisecond))
		Expect(r.MaxTime).To(Equal(3 * time.Millisecond))
		Expect(r.AvgTime).To(BeNumerically("~", 2*time.Millisecond, time.Microsecond))
		Expect(r.BestRate).To(BeNumerically("~", 16_000/0.001, 1))
		Expect(s.WarmupIncluded).To(BeFalse())
	})

	It("should use the only iteration when there is no other", func() {
		m := matrixOf(1, func(kernels.Kernel, int) time.Duration { return 2 * time.Millisecond })
		s := report.Summarize(m, 1000, config.ElementSize)

		Expect(s.WarmupIncluded).To(BeTrue())
		Expect(s.Row(kernels.Triad).MinTime).To(Equal(2 * time.Millisecond))
	})

	It("should report a zero rate for a zero minimum time", func() {
		m := matrixOf(2, func(kernels.Kernel, int) time.Duration { return 0 })
		s := report.Summarize(m, 1000, config.ElementSize)

		for _, r := range s.Rows {
			Expect(r.BestRate).To(BeZero())
		}
	})

	It("should never lower the best rate when the minimum time drops", func() {
		prev := 0.0
		for _, us := range []int{5000, 2000, 1000, 999, 100, 1} {
			fastest := time.Duration(us) * time.Microsecond
			m := matrixOf(3, func(_ kernels.Kernel, i int) time.Duration {
				if i == 2 {
					return fastest
				}
				return 10 * time.Millisecond
			})
			rate := report.Summarize(m, 1000, config.ElementSize).Row(kernels.Add).BestRate

			Expect(rate).To(BeNumerically(">=", prev))
			prev = rate
		}
	})

	It("should size the footprint from every array", func() {
		m := matrixOf(2, func(kernels.Kernel, int) time.Duration { return time.Millisecond })
		s := report.Summarize(m, 1000, config.ElementSize)

		Expect(s.ArrayBytes()).To(Equal(uint64(8_000)))
		Expect(s.Footprint()).To(Equal(config.NumArrays * s.ArrayBytes()))
		Expect(s.Footprint()).To(Equal((&config.Config{ArrayLength: 1000}).Footprint()))
	})
})

var _ = Describe("Print", func() {
	var s *report.Summary

	BeforeEach(func() {
		m := matrixOf(3, func(kernels.Kernel, int) time.Duration { return 5 * time.Millisecond })
		s = report.Summarize(m, 1_000_000, config.ElementSize)
		s.Target = config.TargetCI
		s.Workers = 4
		s.Alignment = 64
		s.Calibration = clock.Calibration{Resolution: time.Microsecond, Samples: 20}
	})

	It("should print the metadata and one row per kernel", func() {
		var buf bytes.Buffer
		s.Print(&buf)
		out := buf.String()

		Expect(out).To(ContainSubstring("target ci"))
		Expect(out).To(ContainSubstring("Array size = 1000000 (elements), 8 bytes per element"))
		Expect(out).To(ContainSubstring("Total memory required = 22.9 MiB"))
		Expect(out).To(ContainSubstring("executed 3 times"))
		Expect(out).To(ContainSubstring("appears to be 1µs"))
		Expect(out).To(ContainSubstring("(= 5000 clock ticks)"))
		for _, name := range []string{"Copy:", "Scale:", "Add:", "Triad:"} {
			Expect(out).To(ContainSubstring(name))
		}
		Expect(out).To(ContainSubstring("3200.0")) // Copy: 16 MB in 5 ms
	})

	It("should print rates in decimal megabytes per second", func() {
		var buf bytes.Buffer
		s.Print(&buf)
		out := buf.String()

		Expect(s.Row(kernels.Add).BestRate).To(BeNumerically("~", 4.8e9, 1))
		Expect(out).To(ContainSubstring("Best Rate MB/s"))
		Expect(out).To(ContainSubstring("4800.0"))
		Expect(out).To(ContainSubstring("10^6 bytes per second"))
	})

	It("should state a successful validation", func() {
		s.Validation = &validate.Result{Tolerance: validate.DefaultTolerance(3)}

		var buf bytes.Buffer
		s.Print(&buf)
		Expect(buf.String()).To(ContainSubstring("Solution Validates"))
		Expect(s.Valid()).To(BeTrue())
	})

	It("should mark a failed validation prominently", func() {
		s.Validation = &validate.Result{Tolerance: validate.DefaultTolerance(3)}
		s.Validation.Arrays[1] = validate.ArrayResult{
			Name: "B", Expected: 3, Exact: 999, Failed: 1, MaxAbsErr: 1, MaxRelErr: 0.33,
			FirstFailures: []int{42},
		}

		var buf bytes.Buffer
		s.Print(&buf)
		out := buf.String()

		Expect(out).To(ContainSubstring("FAILED VALIDATION"))
		Expect(out).To(ContainSubstring("Array B: 1 of 1000 elements"))
		Expect(out).To(ContainSubstring("[42]"))
		Expect(s.Valid()).To(BeFalse())
	})

	It("should mark unreliable timing and print warnings", func() {
		s.TimerErr = errors.New("clock too coarse")
		s.Warnings = []string{"working set is cache resident"}

		var buf bytes.Buffer
		s.Print(&buf)
		out := buf.String()

		Expect(out).To(ContainSubstring("UNRELIABLE TIMING: clock too coarse"))
		Expect(out).To(ContainSubstring("WARNING: working set is cache resident"))
		Expect(s.Valid()).To(BeFalse())
	})
})
