// Package cache models a last-level cache with Akita cache components. The
// benchmark uses it to check that its working set cannot stay resident in
// the target's cache between kernel passes.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int64
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
}

// DefaultLLCConfig returns a last-level cache of the given size with the
// geometry most server and desktop parts use: 16 ways of 64-byte lines.
func DefaultLLCConfig(size int64) Config {
	return Config{
		Size:          size,
		Associativity: 16,
		BlockSize:     64,
	}
}

// NumSets returns the number of sets the configuration describes (at least 1).
func (c Config) NumSets() int {
	sets := c.Size / int64(c.Associativity*c.BlockSize)
	if sets < 1 {
		return 1
	}
	return int(sets)
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads  uint64
	Writes uint64
	Hits   uint64
	Misses uint64

	// Evictions counts valid blocks replaced on a miss; Writebacks counts
	// the dirty ones among them.
	Evictions  uint64
	Writebacks uint64
}

// MemoryBlocks returns the number of blocks moved between the cache and
// memory: one fill per miss and one write per writeback.
func (s Statistics) MemoryBlocks() uint64 {
	return s.Misses + s.Writebacks
}

// Accesses returns the total number of reads and writes.
func (s Statistics) Accesses() uint64 {
	return s.Reads + s.Writes
}

// HitRate returns the fraction of accesses that hit, or 0 without accesses.
func (s Statistics) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Accesses())
}

// Cache is a tag-only cache model: it tracks which blocks are resident and
// dirty but stores no data.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// New creates a new cache with the given configuration.
func New(config Config) *Cache {
	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// Read models a load of the block containing addr and reports whether it
// hit.
func (c *Cache) Read(addr uint64) bool {
	c.stats.Reads++
	return c.access(addr, false)
}

// Write models a store to the block containing addr and reports whether it
// hit. A missing block is allocated, which costs a fill from memory.
func (c *Cache) Write(addr uint64) bool {
	c.stats.Writes++
	return c.access(addr, true)
}

func (c *Cache) access(addr uint64, isWrite bool) bool {
	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block) // Update LRU
		if isWrite {
			block.IsDirty = true
		}
		return true
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return false
	}

	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty {
			c.stats.Writebacks++
		}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = isWrite
	c.directory.Visit(victim)

	return false
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}
