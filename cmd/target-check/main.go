// Package main provides a CLI tool to check the built-in target profiles
// against this host.
//
// It prints one line per target with the memory the target needs, how
// large each array is relative to the target's last-level cache, and
// whether this host has enough available memory to run it. With -dump DIR
// it also writes each profile as an editable JSON file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarchlab/streambw/arrays"
	"github.com/sarchlab/streambw/config"
	"github.com/sarchlab/streambw/timing/cache"
)

func main() {
	dumpDir := flag.String("dump", "", "Write every target profile as JSON into this directory")
	flag.Parse()

	available, err := arrays.SystemMemory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading available memory: %v\n", err)
	}

	if *dumpDir != "" {
		if err := os.MkdirAll(*dumpDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *dumpDir, err)
			os.Exit(1)
		}
	}

	runnable := 0
	fmt.Printf("%-14s %10s %10s %8s  %s\n", "target", "footprint", "llc", "ratio", "status")
	for _, t := range config.Targets() {
		cfg := t.Config()
		footprint := cfg.Footprint()

		ratio := "-"
		if cfg.LastLevelCache > 0 {
			ratio = fmt.Sprintf("%.1fx", float64(cfg.ArrayBytes())/float64(cfg.LastLevelCache))
		}

		status := "✅ fits"
		verr := cfg.Validate()
		switch {
		case verr != nil:
			status = fmt.Sprintf("❌ %v", verr)
		case err != nil:
			status = "? memory unknown"
		case footprint > available:
			status = fmt.Sprintf("❌ needs %s, %s available", mib(footprint), mib(available))
		default:
			runnable++
		}
		if cfg.LastLevelCache > 0 &&
			float64(cfg.ArrayBytes()) < cache.SizingRule*float64(cfg.LastLevelCache) {
			status += " (arrays below the cache sizing rule)"
		}

		fmt.Printf("%-14s %10s %10s %8s  %s\n", t.Name, mib(footprint), mib(uint64(cfg.LastLevelCache)), ratio, status)
		fmt.Fprintf(os.Stderr, "  %s - %s\n", t.Name, t.Description)

		if *dumpDir != "" {
			path := filepath.Join(*dumpDir, t.Name+".json")
			if err := cfg.SaveConfig(path); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
				os.Exit(1)
			}
		}
	}

	fmt.Printf("\n%d of %d targets can run on this host\n", runnable, len(config.Targets()))
}

func mib(bytes uint64) string {
	return fmt.Sprintf("%.0fMiB", float64(bytes)/(1<<20))
}
