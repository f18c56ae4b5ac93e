// Package validate checks the arrays left by a run against their
// analytically expected contents.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/sarchlab/streambw/config"
	"github.com/sarchlab/streambw/kernels"
)

// MaxReportedFailures bounds ArrayResult.FirstFailures.
const MaxReportedFailures = 8

// Tolerance is the largest deviation from the expected value that still
// counts as floating-point drift, relative to the magnitude of the operands
// that produced the element (see OperandMagnitudes).
type Tolerance struct {
	Relative float64
}

// DefaultTolerance scales with the number of iterations: every iteration
// performs four rounded operations on each element.
func DefaultTolerance(iterations int) Tolerance {
	return Tolerance{Relative: math.Max(1e-13, 4*float64(iterations)*epsilon)}
}

// epsilon is the float64 machine epsilon, 2^-52.
const epsilon = 1.0 / (1 << 52)

// ArrayResult summarizes the comparison of one array.
type ArrayResult struct {
	Name     string
	Expected float64

	// Scale is the operand magnitude the tolerance is applied to.
	Scale float64

	// Exact, Drift and Failed partition the elements: equal to the expected
	// value, within tolerance, and beyond it.
	Exact, Drift, Failed int

	MaxAbsErr float64
	MaxRelErr float64

	// FirstFailures lists the lowest indices that failed, at most
	// MaxReportedFailures of them.
	FirstFailures []int
}

// Passed reports whether no element exceeded the tolerance.
func (r ArrayResult) Passed() bool {
	return r.Failed == 0
}

func (r *ArrayResult) observe(i int, got float64, tol Tolerance) {
	want := r.Expected
	if got == want {
		r.Exact++
		return
	}

	abs := math.Abs(got - want)
	rel := abs
	if want != 0 {
		rel = abs / math.Abs(want)
	}
	if math.IsNaN(abs) {
		abs, rel = math.Inf(1), math.Inf(1)
	}
	r.MaxAbsErr = math.Max(r.MaxAbsErr, abs)
	r.MaxRelErr = math.Max(r.MaxRelErr, rel)

	if abs <= tol.Relative*r.Scale {
		r.Drift++
		return
	}

	r.Failed++
	if len(r.FirstFailures) < MaxReportedFailures {
		r.FirstFailures = append(r.FirstFailures, i)
	}
}

func (r *ArrayResult) merge(o ArrayResult) {
	r.Exact += o.Exact
	r.Drift += o.Drift
	r.Failed += o.Failed
	r.MaxAbsErr = math.Max(r.MaxAbsErr, o.MaxAbsErr)
	r.MaxRelErr = math.Max(r.MaxRelErr, o.MaxRelErr)
	for _, i := range o.FirstFailures {
		if len(r.FirstFailures) == MaxReportedFailures {
			break
		}
		r.FirstFailures = append(r.FirstFailures, i)
	}
}

// Result is the outcome of validating A, B and C.
type Result struct {
	Iterations int
	Tolerance  Tolerance
	Arrays     [config.NumArrays]ArrayResult
}

// Passed reports whether every array is within tolerance.
func (r *Result) Passed() bool {
	for _, a := range r.Arrays {
		if !a.Passed() {
			return false
		}
	}
	return true
}

// Drifted reports whether any element deviated without failing.
func (r *Result) Drifted() bool {
	for _, a := range r.Arrays {
		if a.Drift > 0 {
			return true
		}
	}
	return false
}

// Err returns a *ValidationFailure if any array failed, nil otherwise.
func (r *Result) Err() error {
	if r.Passed() {
		return nil
	}

	f := &ValidationFailure{Tolerance: r.Tolerance}
	for _, a := range r.Arrays {
		if !a.Passed() {
			f.Arrays = append(f.Arrays, a)
		}
	}
	return f
}

// ValidationFailure reports arrays whose contents diverge from the expected
// values beyond the tolerance. Bandwidth numbers from such a run cannot be
// trusted.
type ValidationFailure struct {
	Tolerance Tolerance
	Arrays    []ArrayResult
}

// Error implements the error interface.
func (e *ValidationFailure) Error() string {
	parts := make([]string, 0, len(e.Arrays))
	for _, a := range e.Arrays {
		parts = append(parts, fmt.Sprintf(
			"%s: %d elements beyond tolerance %.1e (max relative error %.3e, first at %v)",
			a.Name, a.Failed, e.Tolerance.Relative, a.MaxRelErr, a.FirstFailures))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate compares every element of v with the values expected after
// iterations passes from seeds. The scan is spread over exec.
func Validate(
	v kernels.Vectors,
	iterations int,
	scalar float64,
	seeds config.Seeds,
	tol Tolerance,
	exec *kernels.Executor,
) *Result {
	want := ExpectedValues(iterations, scalar, seeds)
	mag := OperandMagnitudes(iterations, scalar, seeds)
	arrays := [config.NumArrays][]float64{v.A, v.B, v.C}

	res := &Result{Iterations: iterations, Tolerance: tol}
	res.Arrays = [config.NumArrays]ArrayResult{
		{Name: "A", Expected: want.A, Scale: mag.A},
		{Name: "B", Expected: want.B, Scale: mag.B},
		{Name: "C", Expected: want.C, Scale: mag.C},
	}

	n := v.Len()
	partial := make([][config.NumArrays]ArrayResult, len(exec.Ranges(n)))
	exec.For(n, func(r kernels.Range) {
		local := &partial[r.Index]
		for j, arr := range arrays {
			local[j].Expected = res.Arrays[j].Expected
			local[j].Scale = res.Arrays[j].Scale
			for i := r.Lo; i < r.Hi; i++ {
				local[j].observe(i, arr[i], tol)
			}
		}
	})

	for j := range res.Arrays {
		for _, p := range partial {
			res.Arrays[j].merge(p[j])
		}
	}
	return res
}
