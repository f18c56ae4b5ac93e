package kernels

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// LineElements is the number of float64 elements in a 64-byte cache line.
// Worker ranges start on multiples of it so no two workers write the same
// line.
const LineElements = 8

// Range is the half-open index interval [Lo, Hi) owned by worker Index
// during one pass.
type Range struct {
	Index  int
	Lo, Hi int
}

// Len returns the number of elements in the range.
func (r Range) Len() int {
	return r.Hi - r.Lo
}

// Executor runs a loop body over disjoint contiguous ranges of an index
// space, one range per worker, and waits for all of them.
type Executor struct {
	workers int
}

// NewExecutor creates an executor with the given number of workers.
// Zero or less means one worker per schedulable CPU.
func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{workers: workers}
}

// Workers returns the number of workers.
func (e *Executor) Workers() int {
	return e.workers
}

// Ranges splits [0, n) into at most Workers() disjoint ranges that cover it
// in order. Every boundary except n is a multiple of LineElements.
func (e *Executor) Ranges(n int) []Range {
	if n <= 0 {
		return nil
	}

	chunk := (n + e.workers - 1) / e.workers
	chunk = (chunk + LineElements - 1) / LineElements * LineElements

	ranges := make([]Range, 0, e.workers)
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		ranges = append(ranges, Range{Index: len(ranges), Lo: lo, Hi: hi})
	}
	return ranges
}

// For calls body once per range of [0, n). The calling goroutine runs the
// first range itself; For returns only after every range is done, which is
// the barrier between kernel passes.
func (e *Executor) For(n int, body func(Range)) {
	ranges := e.Ranges(n)
	if len(ranges) == 0 {
		return
	}
	if len(ranges) == 1 {
		body(ranges[0])
		return
	}

	var g errgroup.Group
	for _, r := range ranges[1:] {
		r := r
		g.Go(func() error {
			body(r)
			return nil
		})
	}
	body(ranges[0])
	_ = g.Wait()
}
