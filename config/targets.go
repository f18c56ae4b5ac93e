package config

import "sort"

// Built-in target names.
const (
	TargetGeneric   = "generic"
	TargetCI        = "ci"
	TargetX86AVX2   = "x86_64-avx2"
	TargetX86AVX512 = "x86_64-avx512"
	TargetARM64NEON = "arm64-neon"
	TargetARM64SVE  = "arm64-sve"
)

const (
	defaultIterations = 10
	defaultAlignment  = 64
	megabyte          = 1024 * 1024
	streamScalar      = 3.0
)

// Target is a named, documented benchmark profile.
type Target struct {
	Name        string
	Description string
	config      Config
}

// Config returns a fresh copy of the target's configuration.
func (t Target) Config() *Config {
	return t.config.Clone()
}

// The array lengths keep each array at least four times the listed
// last-level cache, and the iteration counts keep a full run in the range
// of a few seconds on the class of machine each profile describes.
var targets = map[string]Target{
	TargetGeneric: {
		Name:        TargetGeneric,
		Description: "portable default: 10M elements per array, 10 iterations",
		config: Config{
			ArrayLength:    10_000_000,
			Iterations:     defaultIterations,
			Alignment:      defaultAlignment,
			LastLevelCache: 16 * megabyte,
		},
	},
	TargetCI: {
		Name:        TargetCI,
		Description: "small smoke-test profile for CI machines (cache resident)",
		config: Config{
			ArrayLength:    1_000_000,
			Iterations:     5,
			Alignment:      defaultAlignment,
			LastLevelCache: 0,
			Allocator:      AllocHeap,
		},
	},
	TargetX86AVX2: {
		Name:        TargetX86AVX2,
		Description: "x86-64 with AVX2, 32-byte vectors, up to 64MB L3",
		config: Config{
			ArrayLength:    100_000_000,
			Iterations:     20,
			Alignment:      32,
			LastLevelCache: 64 * megabyte,
		},
	},
	TargetX86AVX512: {
		Name:        TargetX86AVX512,
		Description: "x86-64 server with AVX-512, 64-byte vectors, up to 320MB L3",
		config: Config{
			ArrayLength:    400_000_000,
			Iterations:     20,
			Alignment:      64,
			LastLevelCache: 320 * megabyte,
		},
	},
	TargetARM64NEON: {
		Name:        TargetARM64NEON,
		Description: "arm64 with NEON, 16-byte vectors, up to 32MB SLC",
		config: Config{
			ArrayLength:    80_000_000,
			Iterations:     20,
			Alignment:      16,
			LastLevelCache: 32 * megabyte,
		},
	},
	TargetARM64SVE: {
		Name:        TargetARM64SVE,
		Description: "arm64 server with SVE (up to 2048-bit vectors), high-bandwidth memory",
		config: Config{
			ArrayLength:    800_000_000,
			Iterations:     10,
			Alignment:      256,
			LastLevelCache: 128 * megabyte,
		},
	},
}

func init() {
	for name, t := range targets {
		t.config.Name = name
		t.config.Scalar = streamScalar
		t.config.Seeds = DefaultSeeds()
		if t.config.Allocator == "" {
			t.config.Allocator = AllocMmap
		}
		targets[name] = t
	}
}

// Targets returns all built-in targets sorted by name.
func Targets() []Target {
	list := make([]Target, 0, len(targets))
	for _, t := range targets {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Lookup returns the configuration of the named target.
func Lookup(name string) (*Config, error) {
	t, ok := targets[name]
	if !ok {
		return nil, &ConfigurationError{Field: "target", Value: name, Reason: "is not a known target"}
	}
	return t.Config(), nil
}
