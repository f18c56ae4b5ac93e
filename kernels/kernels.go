// Package kernels implements the four STREAM kernels and the data-parallel
// executor that runs one kernel pass across all workers.
package kernels

// Kernel identifies one of the four streaming operations.
type Kernel int

// The kernels in the order they run within an iteration. Add and Triad read
// what Copy and Scale wrote earlier in the same iteration.
const (
	Copy Kernel = iota
	Scale
	Add
	Triad
)

// Count is the number of kernels.
const Count = 4

// All returns the kernels in execution order.
func All() []Kernel {
	return []Kernel{Copy, Scale, Add, Triad}
}

// String returns the kernel name as printed in reports.
func (k Kernel) String() string {
	switch k {
	case Copy:
		return "Copy"
	case Scale:
		return "Scale"
	case Add:
		return "Add"
	case Triad:
		return "Triad"
	default:
		return "Unknown"
	}
}

// Formula describes the per-element operation.
func (k Kernel) Formula() string {
	switch k {
	case Copy:
		return "c[i] = a[i]"
	case Scale:
		return "b[i] = q*c[i]"
	case Add:
		return "c[i] = a[i] + b[i]"
	case Triad:
		return "a[i] = b[i] + q*c[i]"
	default:
		return ""
	}
}

// ArraysTouched returns how many arrays one pass of the kernel reads or
// writes: two for Copy and Scale, three for Add and Triad.
func (k Kernel) ArraysTouched() int {
	switch k {
	case Copy, Scale:
		return 2
	case Add, Triad:
		return 3
	default:
		return 0
	}
}

// BytesMoved returns the bytes one pass of the kernel moves over arrays of
// n elements of elemSize bytes.
func (k Kernel) BytesMoved(n, elemSize int) uint64 {
	return uint64(n) * uint64(elemSize) * uint64(k.ArraysTouched())
}

// Vectors are the three arrays a kernel pass works on. All three must have
// the same length.
type Vectors struct {
	A, B, C []float64
}

// Len returns the common length of the arrays.
func (v Vectors) Len() int {
	return len(v.A)
}

// Set runs kernel passes over Vectors with a fixed scalar.
type Set struct {
	exec   *Executor
	scalar float64
}

// NewSet creates a kernel set that distributes every pass over exec.
func NewSet(exec *Executor, scalar float64) *Set {
	return &Set{exec: exec, scalar: scalar}
}

// Scalar returns the multiplier used by Scale and Triad.
func (s *Set) Scalar() float64 {
	return s.scalar
}

// Executor returns the executor passes run on.
func (s *Set) Executor() *Executor {
	return s.exec
}

// Run performs one full pass of kernel k and returns when every worker has
// finished its range.
func (s *Set) Run(k Kernel, v Vectors) {
	q := s.scalar
	switch k {
	case Copy:
		s.exec.For(v.Len(), func(r Range) {
			CopyRange(v.C[r.Lo:r.Hi], v.A[r.Lo:r.Hi])
		})
	case Scale:
		s.exec.For(v.Len(), func(r Range) {
			ScaleRange(v.B[r.Lo:r.Hi], v.C[r.Lo:r.Hi], q)
		})
	case Add:
		s.exec.For(v.Len(), func(r Range) {
			AddRange(v.C[r.Lo:r.Hi], v.A[r.Lo:r.Hi], v.B[r.Lo:r.Hi])
		})
	case Triad:
		s.exec.For(v.Len(), func(r Range) {
			TriadRange(v.A[r.Lo:r.Hi], v.B[r.Lo:r.Hi], v.C[r.Lo:r.Hi], q)
		})
	}
}

// CopyRange sets c[i] = a[i].
func CopyRange(c, a []float64) {
	c = c[:len(a)]
	for i, x := range a {
		c[i] = x
	}
}

// ScaleRange sets b[i] = q*c[i].
func ScaleRange(b, c []float64, q float64) {
	b = b[:len(c)]
	for i, x := range c {
		b[i] = q * x
	}
}

// AddRange sets c[i] = a[i] + b[i].
func AddRange(c, a, b []float64) {
	b = b[:len(a)]
	c = c[:len(a)]
	for i, x := range a {
		c[i] = x + b[i]
	}
}

// TriadRange sets a[i] = b[i] + q*c[i].
func TriadRange(a, b, c []float64, q float64) {
	a = a[:len(b)]
	c = c[:len(b)]
	for i, x := range b {
		a[i] = x + q*c[i]
	}
}
