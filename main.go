// Package main provides the entry point for streambw.
// streambw measures sustainable memory bandwidth with the STREAM kernels.
//
// For the full CLI, use: go run ./cmd/benchmark
package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/streambw/config"
)

func main() {
	fmt.Println("streambw - STREAM memory bandwidth benchmark")
	fmt.Println("")
	fmt.Println("Usage: benchmark [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -target     Built-in target profile")
	fmt.Println("  -config     Path to a JSON configuration file")
	fmt.Println("  -n          Elements per array")
	fmt.Println("  -iterations Passes over the kernel set")
	fmt.Println("  -runs       Runs per target")
	fmt.Println("  -csv/-json  Alternative output formats")
	fmt.Println("  -v          Verbose output")
	fmt.Println("")
	fmt.Println("Targets:")
	for _, t := range config.Targets() {
		fmt.Printf("  %-14s %s\n", t.Name, t.Description)
	}
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/benchmark' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/benchmark' instead.")
	}
}
