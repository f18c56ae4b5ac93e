// Package report turns a timing matrix into per-kernel bandwidth figures and
// prints them as a STREAM-style table.
package report

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sarchlab/streambw/config"
	"github.com/sarchlab/streambw/kernels"
	"github.com/sarchlab/streambw/runner"
	"github.com/sarchlab/streambw/timing/clock"
	"github.com/sarchlab/streambw/validate"
)

// Row is the summary of one kernel.
type Row struct {
	Kernel kernels.Kernel

	// Bytes is the traffic of one pass of the kernel.
	Bytes uint64

	// BestRate is Bytes divided by MinTime, in bytes per second. It is zero
	// when MinTime is zero.
	BestRate float64

	AvgTime time.Duration
	MinTime time.Duration
	MaxTime time.Duration
}

// Summary is everything printed for one run of one target.
type Summary struct {
	Target      string
	ArrayLength int
	ElementSize int
	Iterations  int
	Workers     int
	Alignment   int

	// WarmupIncluded is set when the only iteration was also the warm-up.
	WarmupIncluded bool

	// Typical is the median measured kernel pass.
	Typical time.Duration

	Calibration clock.Calibration
	Rows        []Row
	Validation  *validate.Result

	// TimerErr is the timer resolution problem found for this run, if any.
	TimerErr error

	Warnings []string
}

// Summarize computes per-kernel statistics over the measured samples of m
// for arrays of n elements of elemSize bytes.
func Summarize(m *runner.TimingMatrix, n, elemSize int) *Summary {
	s := &Summary{
		ArrayLength:    n,
		ElementSize:    elemSize,
		Iterations:     m.Iterations,
		WarmupIncluded: m.WarmupIncluded(),
		Typical:        m.Typical(),
	}

	for _, k := range kernels.All() {
		s.Rows = append(s.Rows, summarizeKernel(k, m.Measured(k), n, elemSize))
	}
	return s
}

func summarizeKernel(k kernels.Kernel, samples []time.Duration, n, elemSize int) Row {
	row := Row{Kernel: k, Bytes: k.BytesMoved(n, elemSize)}
	if len(samples) == 0 {
		return row
	}

	secs := make([]float64, len(samples))
	for i, d := range samples {
		secs[i] = d.Seconds()
	}

	minSecs := floats.Min(secs)
	row.MinTime = seconds(minSecs)
	row.MaxTime = seconds(floats.Max(secs))
	row.AvgTime = seconds(stat.Mean(secs, nil))
	row.BestRate = Bandwidth(row.Bytes, row.MinTime)

	return row
}

// Bandwidth returns bytes/d in bytes per second, or zero for a zero
// duration.
func Bandwidth(bytes uint64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(bytes) / d.Seconds()
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Row returns the row of kernel k.
func (s *Summary) Row(k kernels.Kernel) Row {
	for _, r := range s.Rows {
		if r.Kernel == k {
			return r
		}
	}
	return Row{Kernel: k}
}

// ArrayBytes returns the size of one array.
func (s *Summary) ArrayBytes() uint64 {
	return uint64(s.ArrayLength) * uint64(s.ElementSize)
}

// Footprint returns the size of all arrays.
func (s *Summary) Footprint() uint64 {
	return config.NumArrays * s.ArrayBytes()
}

// Valid reports whether the run validated and was timed with an adequate
// clock.
func (s *Summary) Valid() bool {
	if s.Validation != nil && !s.Validation.Passed() {
		return false
	}
	return s.TimerErr == nil
}
