// Package runner drives the kernel set over the arrays for a number of
// iterations and times every kernel pass.
package runner

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/streambw/config"
	"github.com/sarchlab/streambw/kernels"
	"github.com/sarchlab/streambw/timing/clock"
)

// Runner executes iterations of Copy, Scale, Add and Triad and records how
// long each pass took.
type Runner struct {
	clock  clock.Clock
	exec   *kernels.Executor
	logger logr.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for per-iteration progress at V(1).
func WithLogger(l logr.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New creates a Runner that times passes with c and spreads them over exec.
func New(c clock.Clock, exec *kernels.Executor, opts ...Option) *Runner {
	r := &Runner{
		clock:  c,
		exec:   exec,
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs iterations full passes over v. Iterations run strictly one
// after another; within an iteration the kernels run in their fixed order
// and each pass finishes on every worker before the next one starts.
//
// The arrays are updated in place, so calling Run again on the same vectors
// continues the sequence where the previous call stopped.
func (r *Runner) Run(v kernels.Vectors, scalar float64, iterations int) (*TimingMatrix, error) {
	if iterations <= 0 {
		return nil, &config.ConfigurationError{
			Field: "iterations", Value: iterations, Reason: "must be > 0",
		}
	}

	set := kernels.NewSet(r.exec, scalar)
	m := NewTimingMatrix(iterations)

	for i := 0; i < iterations; i++ {
		for _, k := range kernels.All() {
			start := r.clock.Now()
			set.Run(k, v)
			m.Record(k, i, r.clock.Now()-start)
		}

		r.logger.V(1).Info("iteration done",
			"iteration", i,
			"copy", m.Samples[kernels.Copy][i],
			"scale", m.Samples[kernels.Scale][i],
			"add", m.Samples[kernels.Add][i],
			"triad", m.Samples[kernels.Triad][i])
	}

	return m, nil
}

// CheckResolution returns a *clock.TimerResolutionError when a typical
// kernel pass in m spans fewer than clock.MinTicks ticks of the calibrated
// clock. The measurements are still usable for validation but their rates
// are not trustworthy.
func CheckResolution(m *TimingMatrix, cal clock.Calibration) error {
	return cal.Check(m.Typical())
}
