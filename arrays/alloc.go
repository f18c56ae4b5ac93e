package arrays

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"

	"github.com/sarchlab/streambw/config"
)

// allocFunc returns an aligned buffer of n float64s and the function that
// releases it.
type allocFunc func(n, alignment int) ([]float64, func() error, error)

func allocatorFor(name string) (allocFunc, error) {
	switch name {
	case config.AllocMmap:
		return allocMmap, nil
	case config.AllocHeap:
		return allocHeap, nil
	default:
		return nil, &config.ConfigurationError{
			Field: "allocator", Value: name, Reason: `must be "mmap" or "heap"`,
		}
	}
}

// allocMmap maps an anonymous region outside the Go heap. The mapping is
// page aligned; alignments above the page size are met by over-mapping.
func allocMmap(n, alignment int) ([]float64, func() error, error) {
	size := n * config.ElementSize
	if alignment > os.Getpagesize() {
		size += alignment
	}

	region, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to map %d bytes: %w", size, err)
	}

	base := uintptr(unsafe.Pointer(&region[0]))
	off := alignUp(base, uintptr(alignment)) - base
	buf := unsafe.Slice((*float64)(unsafe.Pointer(&region[off])), n)

	return buf, region.Unmap, nil
}

// allocHeap allocates from the Go heap, over-allocating by one alignment
// unit and re-slicing to the first aligned element.
func allocHeap(n, alignment int) (buf []float64, release func() error, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, release, err = nil, nil, fmt.Errorf("failed to allocate %d elements: %v", n, r)
		}
	}()

	pad := alignment / config.ElementSize
	raw := make([]float64, n+pad)

	base := uintptr(unsafe.Pointer(&raw[0]))
	off := int(alignUp(base, uintptr(alignment))-base) / config.ElementSize
	buf = raw[off : off+n : off+n]

	return buf, func() error { return nil }, nil
}

func alignUp(p, alignment uintptr) uintptr {
	return (p + alignment - 1) &^ (alignment - 1)
}
