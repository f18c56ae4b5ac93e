package benchmarks

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"
)

// Version of the benchmark harness, reported in JSON output.
const Version = "0.1.0"

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== STREAM Bandwidth Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Target: %s\n", r.Name)
		for i, s := range r.Runs {
			if r.RunCount > 1 {
				_, _ = fmt.Fprintf(h.config.Output, "Run %d of %d\n", i+1, r.RunCount)
			}
			s.Print(h.config.Output)
		}

		if h.config.Verbose {
			h.printRawData(r)
		}

		_, _ = fmt.Fprintf(h.config.Output, "Status: %s (exit code %d)\n",
			r.ReturnCode, r.ReturnCode.ExitCode())
		if r.Err != nil {
			_, _ = fmt.Fprintf(h.config.Output, "  %s\n", describeErr(r.Err))
		}
		_, _ = fmt.Fprintf(h.config.Output, "Wall Time: %v\n", r.EndTime.Sub(r.StartTime))
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

func (h *Harness) printRawData(r BenchmarkResult) {
	for _, name := range metricNames(r.Result) {
		for run, secs := range r.RawData[name] {
			_, _ = fmt.Fprintf(h.config.Output, "  %s run %d pass times (s):", name, run+1)
			for _, v := range secs {
				_, _ = fmt.Fprintf(h.config.Output, " %.6f", v)
			}
			_, _ = fmt.Fprintln(h.config.Output)
		}
	}
}

// PrintCSV outputs one line per run with the best rate of every kernel in
// MB/s.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,run,array_length,iterations,copy_mbps,scale_mbps,add_mbps,triad_mbps,validated,timer_ok,return_code")

	for _, r := range results {
		if len(r.Runs) == 0 {
			_, _ = fmt.Fprintf(h.config.Output, "%s,0,0,0,0,0,0,0,false,false,%s\n", r.Name, r.ReturnCode)
			continue
		}

		for i, s := range r.Runs {
			_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.1f,%.1f,%.1f,%.1f,%t,%t,%s\n",
				r.Name,
				i+1,
				s.ArrayLength,
				s.Iterations,
				r.Result[MetricCopy][i]/1e6,
				r.Result[MetricScale][i]/1e6,
				r.Result[MetricAdd][i]/1e6,
				r.Result[MetricTriad][i]/1e6,
				s.Validation != nil && s.Validation.Passed(),
				s.TimerErr == nil,
				r.ReturnCode,
			)
		}
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// ExitCode is the process exit status for these results
	ExitCode int `json:"exit_code"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the report was produced
	Timestamp string `json:"timestamp"`

	// Version of the harness
	Version string `json:"version"`

	GOOS   string `json:"goos"`
	GOARCH string `json:"goarch"`
	NumCPU int    `json:"num_cpu"`

	// TimerResolution is the calibrated clock resolution in nanoseconds
	TimerResolution time.Duration `json:"timer_resolution_ns"`

	RunCount int `json:"run_count"`
}

// PrintJSON outputs benchmark results in JSON format.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	meta := ReportMetadata{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
		RunCount:  h.config.RunCount,
	}
	if h.cal != nil {
		meta.TimerResolution = h.cal.Resolution
	}

	report := BenchmarkReport{
		Metadata: meta,
		Results:  results,
		ExitCode: ExitCode(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}
