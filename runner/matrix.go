package runner

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sarchlab/streambw/kernels"
)

// TimingMatrix holds one elapsed time per kernel per iteration. Iteration 0
// is the warm-up.
type TimingMatrix struct {
	Iterations int
	Samples    [kernels.Count][]time.Duration
}

// NewTimingMatrix creates an empty matrix for the given iteration count.
func NewTimingMatrix(iterations int) *TimingMatrix {
	m := &TimingMatrix{Iterations: iterations}
	for k := range m.Samples {
		m.Samples[k] = make([]time.Duration, iterations)
	}
	return m
}

// Record stores the elapsed time of kernel k in iteration i.
func (m *TimingMatrix) Record(k kernels.Kernel, i int, d time.Duration) {
	m.Samples[k][i] = d
}

// Kernel returns every sample of kernel k, warm-up included.
func (m *TimingMatrix) Kernel(k kernels.Kernel) []time.Duration {
	return m.Samples[k]
}

// WarmupIncluded reports whether the measured samples include iteration 0,
// which happens when there is only one iteration.
func (m *TimingMatrix) WarmupIncluded() bool {
	return m.Iterations == 1
}

// Measured returns the samples of kernel k that count towards the reported
// statistics: all but the warm-up, or the warm-up alone if it is the only
// iteration.
func (m *TimingMatrix) Measured(k kernels.Kernel) []time.Duration {
	if m.WarmupIncluded() {
		return m.Samples[k]
	}
	return m.Samples[k][1:]
}

// Typical returns the median measured pass time over all kernels.
func (m *TimingMatrix) Typical() time.Duration {
	var secs []float64
	for _, k := range kernels.All() {
		for _, d := range m.Measured(k) {
			secs = append(secs, d.Seconds())
		}
	}
	if len(secs) == 0 {
		return 0
	}

	sort.Float64s(secs)
	median := stat.Quantile(0.5, stat.Empirical, secs, nil)
	return time.Duration(math.Round(median * float64(time.Second)))
}
