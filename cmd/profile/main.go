// Package main provides a profiling wrapper that runs one benchmark target
// under the Go profiler, to find overhead in the kernel loops.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/streambw/arrays"
	"github.com/sarchlab/streambw/config"
	"github.com/sarchlab/streambw/kernels"
	"github.com/sarchlab/streambw/runner"
	"github.com/sarchlab/streambw/timing/clock"
)

var (
	target     = flag.String("target", config.TargetCI, "Built-in target profile to run")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 5*time.Minute, "max duration to run (for profiling)")
	iterations = flag.Int("iterations", 0, "iterations (0 = the profile's value)")
	workers    = flag.Int("workers", -1, "workers per kernel pass (-1 = the profile's value)")
)

func main() {
	flag.Parse()

	cfg, err := config.Lookup(*target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *iterations > 0 {
		cfg.Iterations = *iterations
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	exec := kernels.NewExecutor(cfg.Workers)
	arrs, err := arrays.New(cfg, exec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error allocating arrays: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = arrs.Close() }()

	fmt.Printf("Target: %s\n", cfg.Name)
	fmt.Printf("Arrays: 3 x %d elements, %d workers\n", cfg.ArrayLength, exec.Workers())

	start := time.Now()
	matrix, err := runner.New(clock.Monotonic(), exec).Run(arrs.Vectors(), cfg.Scalar, cfg.Iterations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running kernels: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	var moved uint64
	for _, k := range kernels.All() {
		moved += k.BytesMoved(cfg.ArrayLength, config.ElementSize) * uint64(len(matrix.Kernel(k)))
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Iterations: %d\n", cfg.Iterations)
	fmt.Printf("Bytes moved: %d\n", moved)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("Average bandwidth: %.1f MB/s\n", float64(moved)/elapsed.Seconds()/1e6)
	}
}
