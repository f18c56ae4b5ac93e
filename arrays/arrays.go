// Package arrays allocates and initializes the three benchmark arrays.
package arrays

import (
	"fmt"
	"unsafe"

	"github.com/go-logr/logr"

	"github.com/sarchlab/streambw/config"
	"github.com/sarchlab/streambw/kernels"
)

// Arrays holds the three equal-length buffers the kernels stream over.
type Arrays struct {
	A, B, C []float64

	alignment int
	releases  []func() error
}

// Option configures Allocate.
type Option func(*options)

type options struct {
	probe  MemoryProbe
	logger logr.Logger
}

// WithProbe replaces the system memory probe.
func WithProbe(p MemoryProbe) Option {
	return func(o *options) {
		o.probe = p
	}
}

// WithLogger sets the logger used for non-fatal diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Allocate validates cfg and reserves the three arrays it describes without
// touching their contents. A footprint larger than the available memory, or an
// allocation the system refuses, is reported as *config.ConfigurationError.
func Allocate(cfg *config.Config, opts ...Option) (*Arrays, error) {
	o := options{probe: SystemMemory, logger: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkMemory(cfg, o); err != nil {
		return nil, err
	}

	alloc, err := allocatorFor(cfg.Allocator)
	if err != nil {
		return nil, err
	}

	arrs := &Arrays{alignment: cfg.Alignment}
	for _, dst := range []*[]float64{&arrs.A, &arrs.B, &arrs.C} {
		buf, release, err := alloc(cfg.ArrayLength, cfg.Alignment)
		if err != nil {
			_ = arrs.Close()
			return nil, &config.ConfigurationError{
				Field:  "array_length",
				Value:  cfg.ArrayLength,
				Reason: fmt.Sprintf("could not be allocated with the %s allocator", cfg.Allocator),
				Err:    err,
			}
		}
		*dst = buf
		arrs.releases = append(arrs.releases, release)
	}

	o.logger.V(1).Info("arrays allocated",
		"allocator", cfg.Allocator,
		"elements", cfg.ArrayLength,
		"footprint", cfg.Footprint(),
		"aligned", arrs.Aligned())

	return arrs, nil
}

// New allocates the arrays described by cfg and fills them with its seeds.
func New(cfg *config.Config, exec *kernels.Executor, opts ...Option) (*Arrays, error) {
	arrs, err := Allocate(cfg, opts...)
	if err != nil {
		return nil, err
	}
	arrs.Initialize(cfg.Seeds, exec)
	return arrs, nil
}

// Initialize fills A, B and C with the seed values. The fill is spread
// over the executor's workers so each worker first-touches the pages it
// will stream during the kernel passes.
func (a *Arrays) Initialize(seeds config.Seeds, exec *kernels.Executor) {
	exec.For(a.Len(), func(r kernels.Range) {
		fill(a.A[r.Lo:r.Hi], seeds.A)
		fill(a.B[r.Lo:r.Hi], seeds.B)
		fill(a.C[r.Lo:r.Hi], seeds.C)
	})
}

func fill(s []float64, v float64) {
	for i := range s {
		s[i] = v
	}
}

// Vectors returns the arrays in the form the kernels take.
func (a *Arrays) Vectors() kernels.Vectors {
	return kernels.Vectors{A: a.A, B: a.B, C: a.C}
}

// Len returns the number of elements in each array.
func (a *Arrays) Len() int {
	return len(a.A)
}

// Footprint returns the total size of the three arrays in bytes.
func (a *Arrays) Footprint() uint64 {
	return uint64(config.NumArrays) * uint64(a.Len()) * config.ElementSize
}

// Alignment returns the requested start alignment in bytes.
func (a *Arrays) Alignment() int {
	return a.alignment
}

// Aligned reports whether every array starts on the requested alignment.
func (a *Arrays) Aligned() bool {
	for _, s := range [][]float64{a.A, a.B, a.C} {
		if len(s) == 0 {
			return false
		}
		if uintptr(unsafe.Pointer(&s[0]))%uintptr(a.alignment) != 0 {
			return false
		}
	}
	return true
}

// Close releases the arrays. They must not be used afterwards.
func (a *Arrays) Close() error {
	var first error
	for _, release := range a.releases {
		if err := release(); err != nil && first == nil {
			first = err
		}
	}
	a.releases = nil
	a.A, a.B, a.C = nil, nil, nil
	return first
}
