// Package config holds the immutable run configuration of the bandwidth
// benchmark: array length, iteration count, scalar and seeds, plus the
// per-target tuning that used to be compiled into each binary.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// ElementSize is the size in bytes of one array element (float64).
const ElementSize = 8

// NumArrays is the number of arrays the kernels stream over.
const NumArrays = 3

// Allocator names accepted by Config.Allocator.
const (
	AllocMmap = "mmap"
	AllocHeap = "heap"
)

// Seeds are the initial values of the three arrays. They must be distinct so
// that validation can tell the effect of each kernel apart.
type Seeds struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// DefaultSeeds returns the classic STREAM initial values.
func DefaultSeeds() Seeds {
	return Seeds{A: 1.0, B: 2.0, C: 0.0}
}

// Config describes one benchmark target.
type Config struct {
	// Name identifies the target (e.g. "x86_64-avx2").
	Name string `json:"name"`

	// ArrayLength is the number of float64 elements in each of A, B and C.
	ArrayLength int `json:"array_length"`

	// Iterations is the number of passes over the kernel set. The first
	// pass is the warm-up and is excluded from the reported statistics.
	Iterations int `json:"iterations"`

	// Scalar is the multiplier used by Scale and Triad.
	Scalar float64 `json:"scalar"`

	// Seeds are the initial array values.
	Seeds Seeds `json:"seeds"`

	// Alignment is the required start alignment of each array in bytes.
	// It should match the natural vector width of the target ISA.
	Alignment int `json:"alignment"`

	// Workers is the number of parallel workers per kernel pass.
	// Zero means one per schedulable CPU.
	Workers int `json:"workers"`

	// LastLevelCache is the size in bytes of the target's last-level cache.
	// Zero disables the working-set residency check.
	LastLevelCache int64 `json:"last_level_cache"`

	// Allocator selects how the arrays are backed: "mmap" or "heap".
	Allocator string `json:"allocator"`
}

// Default returns the configuration of the generic target.
func Default() *Config {
	cfg, _ := Lookup(TargetGeneric)
	return cfg
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep the generic target's values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse benchmark config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize benchmark config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write benchmark config file: %w", err)
	}

	return nil
}

// Validate checks the configuration and returns a *ConfigurationError
// describing the first problem found.
func (c *Config) Validate() error {
	if c.ArrayLength <= 0 {
		return invalid("array_length", c.ArrayLength, "must be > 0")
	}
	if c.ArrayLength > math.MaxInt/(NumArrays*ElementSize) {
		return invalid("array_length", c.ArrayLength, "total footprint overflows the address space")
	}
	if c.Iterations <= 0 {
		return invalid("iterations", c.Iterations, "must be > 0")
	}
	if math.IsNaN(c.Scalar) || math.IsInf(c.Scalar, 0) || c.Scalar == 0 {
		return invalid("scalar", c.Scalar, "must be finite and non-zero")
	}
	if c.Seeds.A == c.Seeds.B || c.Seeds.A == c.Seeds.C || c.Seeds.B == c.Seeds.C {
		return invalid("seeds", c.Seeds, "must be distinct")
	}
	if c.Alignment < ElementSize || c.Alignment&(c.Alignment-1) != 0 {
		return invalid("alignment", c.Alignment, "must be a power of two >= 8")
	}
	if c.Workers < 0 {
		return invalid("workers", c.Workers, "must be >= 0")
	}
	if c.LastLevelCache < 0 {
		return invalid("last_level_cache", c.LastLevelCache, "must be >= 0")
	}
	if c.Allocator != AllocMmap && c.Allocator != AllocHeap {
		return invalid("allocator", c.Allocator, `must be "mmap" or "heap"`)
	}

	return c.checkGrowth()
}

// checkGrowth makes sure the values the kernels produce stay representable.
// Every iteration multiplies A by 2s+s², so after M iterations the largest
// magnitude in play is |a0|·(2s+s²)^M·max(1, |s|, |1+s|).
func (c *Config) checkGrowth() error {
	s := c.Scalar
	growth := math.Abs(2*s + s*s)
	if growth == 0 {
		return invalid("scalar", s, "annihilates the arrays after one iteration")
	}
	if c.Seeds.A == 0 {
		// Everything stays zero; nothing can overflow.
		return nil
	}

	logMag := math.Log2(math.Abs(c.Seeds.A)) +
		float64(c.Iterations)*math.Log2(growth) +
		math.Log2(math.Max(1, math.Max(math.Abs(s), math.Abs(1+s))))
	if logMag >= 1023 {
		return invalid("scalar", s,
			fmt.Sprintf("array values overflow float64 after %d iterations", c.Iterations))
	}

	// Smallest magnitude is a0·growth^(M-1)·min(1, |s|).
	logMin := math.Log2(math.Abs(c.Seeds.A)) +
		float64(c.Iterations-1)*math.Log2(growth) +
		math.Log2(math.Min(1, math.Abs(s)))
	if logMin <= -1022 {
		return invalid("scalar", s,
			fmt.Sprintf("array values underflow float64 after %d iterations", c.Iterations))
	}

	return nil
}

// ArrayBytes returns the size of one array in bytes.
func (c *Config) ArrayBytes() uint64 {
	return uint64(c.ArrayLength) * ElementSize
}

// Footprint returns the total size of the three arrays in bytes.
func (c *Config) Footprint() uint64 {
	return NumArrays * c.ArrayBytes()
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
