package cache

import "fmt"

// DefaultMaxBlocks bounds the number of distinct blocks the residency check
// simulates. Larger working sets are scaled down together with the cache.
const DefaultMaxBlocks = 1 << 18

// SizingRule is the minimum ratio of one array's size to the last-level
// cache size recommended for a bandwidth measurement.
const SizingRule = 4.0

// residentHitRate is the second-iteration hit rate above which the working
// set counts as cache resident.
const residentHitRate = 0.10

// Residency is the outcome of CheckResidency.
type Residency struct {
	// ArrayBytes is the size of one array.
	ArrayBytes uint64
	// CacheBytes is the size of the modelled last-level cache.
	CacheBytes int64
	// Ratio is ArrayBytes / CacheBytes.
	Ratio float64
	// Scale is the factor both the arrays and the cache were shrunk by.
	Scale uint64
	// HitRate is the simulated hit rate of the second iteration.
	HitRate float64
	// Resident reports that a meaningful part of the working set survives
	// in cache from one iteration to the next.
	Resident bool
	// BelowSizingRule reports that an array is smaller than SizingRule
	// times the cache.
	BelowSizingRule bool

	// Evictions and Writebacks are the second iteration's replacements and
	// dirty writebacks, scaled back to the full arrays.
	Evictions  uint64
	Writebacks uint64

	// CountedBytes is the traffic of one iteration as the benchmark counts
	// it: ten array sweeps (2+2+3+3).
	CountedBytes uint64
	// MemoryBytes is the traffic the modelled cache exchanged with memory
	// in the second iteration: fills, including write-allocate fills of
	// stored blocks, plus writebacks.
	MemoryBytes uint64
}

// TrafficRatio returns MemoryBytes / CountedBytes. A working set that
// streams from memory through a write-allocate cache moves 1.4 times the
// counted bytes; a resident one moves far less.
func (r Residency) TrafficRatio() float64 {
	if r.CountedBytes == 0 {
		return 0
	}
	return float64(r.MemoryBytes) / float64(r.CountedBytes)
}

// Warnings describes the problems found, one line each.
func (r Residency) Warnings() []string {
	var warnings []string
	if r.Resident {
		warnings = append(warnings, fmt.Sprintf(
			"working set is cache resident: %.1f%% of accesses hit a %d-byte last-level cache",
			100*r.HitRate, r.CacheBytes))
	}
	if r.BelowSizingRule {
		warnings = append(warnings, fmt.Sprintf(
			"each array is only %.2fx the last-level cache, at least %.0fx is recommended",
			r.Ratio, SizingRule))
	}
	return warnings
}

// CheckResidency replays two iterations of the Copy, Scale, Add and Triad
// address streams over three arrays of arrayBytes each through a model of
// the last-level cache llc, and reports how much of the second iteration
// was served from cache. maxBlocks bounds the simulation size.
func CheckResidency(arrayBytes uint64, llc Config, maxBlocks int) (Residency, error) {
	if llc.Size <= 0 || llc.Associativity <= 0 || llc.BlockSize <= 0 {
		return Residency{}, fmt.Errorf("invalid cache geometry %+v", llc)
	}
	if arrayBytes == 0 {
		return Residency{}, fmt.Errorf("array size must be > 0")
	}
	if maxBlocks <= 0 {
		maxBlocks = DefaultMaxBlocks
	}

	blockSize := uint64(llc.BlockSize)
	blocksPerArray := (arrayBytes + blockSize - 1) / blockSize

	scale := (3*blocksPerArray + uint64(maxBlocks) - 1) / uint64(maxBlocks)

	scaled := llc
	scaled.Size = llc.Size / int64(scale)
	if oneSet := int64(llc.Associativity * llc.BlockSize); scaled.Size < oneSet {
		scaled.Size = oneSet
	}

	res := Residency{
		ArrayBytes: arrayBytes,
		CacheBytes: llc.Size,
		Ratio:      float64(arrayBytes) / float64(llc.Size),
		Scale:      scale,
	}
	res.BelowSizingRule = res.Ratio < SizingRule

	c := New(scaled)
	s := newStream(c, (blocksPerArray+scale-1)/scale, blockSize)

	s.iteration()
	c.ResetStats()
	s.iteration()

	stats := c.Stats()
	res.HitRate = stats.HitRate()
	res.Resident = res.HitRate > residentHitRate
	res.Evictions = stats.Evictions * scale
	res.Writebacks = stats.Writebacks * scale
	res.CountedBytes = 10 * s.blocks * blockSize * scale
	res.MemoryBytes = stats.MemoryBlocks() * blockSize * scale

	return res, nil
}

// stream replays the per-block access pattern of one kernel iteration.
type stream struct {
	cache     *Cache
	blocks    uint64
	blockSize uint64
	a, b, c   uint64
}

func newStream(c *Cache, blocks, blockSize uint64) *stream {
	arrayBytes := blocks * blockSize
	return &stream{
		cache:     c,
		blocks:    blocks,
		blockSize: blockSize,
		a:         0,
		b:         arrayBytes,
		c:         2 * arrayBytes,
	}
}

func (s *stream) iteration() {
	// Copy: c = a
	for i := uint64(0); i < s.blocks; i++ {
		s.cache.Read(s.a + i*s.blockSize)
		s.cache.Write(s.c + i*s.blockSize)
	}
	// Scale: b = q*c
	for i := uint64(0); i < s.blocks; i++ {
		s.cache.Read(s.c + i*s.blockSize)
		s.cache.Write(s.b + i*s.blockSize)
	}
	// Add: c = a + b
	for i := uint64(0); i < s.blocks; i++ {
		s.cache.Read(s.a + i*s.blockSize)
		s.cache.Read(s.b + i*s.blockSize)
		s.cache.Write(s.c + i*s.blockSize)
	}
	// Triad: a = b + q*c
	for i := uint64(0); i < s.blocks; i++ {
		s.cache.Read(s.b + i*s.blockSize)
		s.cache.Read(s.c + i*s.blockSize)
		s.cache.Write(s.a + i*s.blockSize)
	}
}
