// Command benchmark measures sustainable memory bandwidth with the STREAM
// Copy, Scale, Add and Triad kernels.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-target NAME     Built-in target profile (default: generic)
//	-config FILE     JSON configuration file (overrides -target)
//	-n N             Elements per array
//	-iterations M    Passes over the kernel set, the first is the warm-up
//	-scalar S        Multiplier used by Scale and Triad
//	-workers W       Parallel workers per kernel pass (0: one per CPU)
//	-runs R          Measure each target R times
//	-alloc KIND      Array allocator: mmap or heap
//	-all             Run every built-in target
//	-csv             Output results in CSV format
//	-json            Output results in JSON format
//	-v               Verbose output
//
// Example:
//
//	# Measure with the AVX2 profile, three times
//	go run ./cmd/benchmark -target x86_64-avx2 -runs 3
//
//	# Quick check with small arrays
//	go run ./cmd/benchmark -target ci -n 100000 -iterations 5
//
// The exit status is zero only when every target validated and was timed
// with an adequate clock.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/streambw/benchmarks"
	"github.com/sarchlab/streambw/config"
)

func main() {
	target := flag.String("target", config.TargetGeneric, "Built-in target profile")
	configPath := flag.String("config", "", "Path to a JSON configuration file")
	n := flag.Int("n", 0, "Elements per array (0: keep the profile's value)")
	iterations := flag.Int("iterations", 0, "Iterations (0: keep the profile's value)")
	scalar := flag.Float64("scalar", 0, "Scale/Triad multiplier (0: keep the profile's value)")
	workers := flag.Int("workers", -1, "Workers per kernel pass (-1: keep the profile's value, 0: one per CPU)")
	runs := flag.Int("runs", 1, "Number of runs per target")
	alloc := flag.String("alloc", "", "Array allocator: mmap or heap")
	all := flag.Bool("all", false, "Run every built-in target")
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if *csvOutput && *jsonOutput {
		fmt.Fprintln(os.Stderr, "Error: -csv and -json are mutually exclusive")
		os.Exit(benchmarks.InvalidArgument.ExitCode())
	}
	if *runs <= 0 {
		fmt.Fprintf(os.Stderr, "Error: -runs must be positive, got %d\n", *runs)
		os.Exit(benchmarks.InvalidArgument.ExitCode())
	}

	logger := newLogger(*verbose)

	benches, err := selectBenchmarks(*target, *configPath, *all)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(benchmarks.InvalidArgument.ExitCode())
	}
	for _, b := range benches {
		applyOverrides(b.Config, *n, *iterations, *scalar, *workers)
	}

	// Configure harness
	hc := benchmarks.DefaultConfig()
	hc.Output = os.Stdout
	hc.Logger = logger
	hc.RunCount = *runs
	hc.Allocator = *alloc
	hc.Verbose = *verbose

	harness := benchmarks.NewHarness(hc)
	harness.AddBenchmarks(benches)

	results := harness.RunAll()

	switch {
	case *csvOutput:
		harness.PrintCSV(results)
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
			os.Exit(benchmarks.InvalidResult.ExitCode())
		}
	default:
		harness.PrintResults(results)
	}

	os.Exit(benchmarks.ExitCode(results))
}

func newLogger(verbose bool) logr.Logger {
	verbosity := 0
	if verbose {
		verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

func selectBenchmarks(target, configPath string, all bool) ([]benchmarks.Benchmark, error) {
	switch {
	case all:
		return benchmarks.TargetBenchmarks(), nil
	case configPath != "":
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		name := cfg.Name
		if name == "" {
			name = configPath
		}
		return []benchmarks.Benchmark{{Name: name, Description: configPath, Config: cfg}}, nil
	default:
		bench, err := benchmarks.TargetBenchmark(target)
		if err != nil {
			return nil, err
		}
		return []benchmarks.Benchmark{bench}, nil
	}
}

func applyOverrides(cfg *config.Config, n, iterations int, scalar float64, workers int) {
	if n != 0 {
		cfg.ArrayLength = n
	}
	if iterations != 0 {
		cfg.Iterations = iterations
	}
	if scalar != 0 {
		cfg.Scalar = scalar
	}
	if workers >= 0 {
		cfg.Workers = workers
	}
}
