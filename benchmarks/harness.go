// Package benchmarks drives bandwidth measurements over one or more
// targets and reports their results.
package benchmarks

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/sarchlab/streambw/arrays"
	"github.com/sarchlab/streambw/config"
	"github.com/sarchlab/streambw/kernels"
	"github.com/sarchlab/streambw/report"
	"github.com/sarchlab/streambw/runner"
	"github.com/sarchlab/streambw/timing/cache"
	"github.com/sarchlab/streambw/timing/clock"
	"github.com/sarchlab/streambw/validate"
)

// Metric names in BenchmarkResult.Result, one per kernel.
const (
	MetricCopy  = "copy_bw"
	MetricScale = "scale_bw"
	MetricAdd   = "add_bw"
	MetricTriad = "triad_bw"
)

// metricOf maps each kernel to its metric name.
var metricOf = [kernels.Count]string{
	kernels.Copy:  MetricCopy,
	kernels.Scale: MetricScale,
	kernels.Add:   MetricAdd,
	kernels.Triad: MetricTriad,
}

// BenchmarkResult holds the outcome of every run of one target.
type BenchmarkResult struct {
	// Name identifies the target
	Name string `json:"name"`

	// Config is the configuration the target ran with
	Config *config.Config `json:"config,omitempty"`

	ReturnCode ReturnCode `json:"return_code"`

	// RunCount is the number of runs requested
	RunCount int `json:"run_count"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Runs holds the summary of each completed run
	Runs []*report.Summary `json:"-"`

	// Result maps each metric to its best bandwidth in bytes/s, one value
	// per run
	Result map[string][]float64 `json:"result"`

	// RawData maps each metric to the per-iteration pass times in seconds,
	// one slice per run
	RawData map[string][][]float64 `json:"raw_data"`

	Warnings []string `json:"warnings,omitempty"`

	// Err is the problem behind a non-success return code
	Err error `json:"-"`

	// Error is Err as text, for JSON output
	Error string `json:"error,omitempty"`
}

// Benchmark is one target to measure.
type Benchmark struct {
	Name        string
	Description string
	Config      *config.Config
}

// TargetBenchmark returns the benchmark for a built-in target.
func TargetBenchmark(name string) (Benchmark, error) {
	for _, t := range config.Targets() {
		if t.Name == name {
			return Benchmark{Name: t.Name, Description: t.Description, Config: t.Config()}, nil
		}
	}
	_, err := config.Lookup(name)
	return Benchmark{}, err
}

// TargetBenchmarks returns one benchmark per built-in target.
func TargetBenchmarks() []Benchmark {
	var list []Benchmark
	for _, t := range config.Targets() {
		list = append(list, Benchmark{Name: t.Name, Description: t.Description, Config: t.Config()})
	}
	return list
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives diagnostics; progress is logged at V(1)
	Logger logr.Logger

	// RunCount is how many times each target is measured (default: 1)
	RunCount int

	// Allocator overrides every target's allocator when non-empty
	Allocator string

	// Clock times the kernel passes (default: the monotonic clock)
	Clock clock.Clock

	// Calibration, if set, is used instead of calibrating Clock
	Calibration *clock.Calibration

	// Probe reports the available memory (default: arrays.SystemMemory)
	Probe arrays.MemoryProbe

	// Verbose adds the per-iteration pass times to PrintResults
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Output:   os.Stdout,
		Logger:   logr.Discard(),
		RunCount: 1,
		Clock:    clock.Monotonic(),
		Probe:    arrays.SystemMemory,
		Verbose:  false,
	}
}

// Harness runs bandwidth benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
	cal        *clock.Calibration
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger.GetSink() == nil {
		config.Logger = logr.Discard()
	}
	if config.RunCount <= 0 {
		config.RunCount = 1
	}
	if config.Clock == nil {
		config.Clock = clock.Monotonic()
	}
	if config.Probe == nil {
		config.Probe = arrays.SystemMemory
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
		cal:        config.Calibration,
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results. The clock is
// calibrated once, before the first benchmark.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	calErr := h.calibrate()
	for _, bench := range h.benchmarks {
		if calErr != nil {
			now := time.Now()
			results = append(results, BenchmarkResult{
				Name:       bench.Name,
				Config:     bench.Config,
				ReturnCode: TimerResolution,
				RunCount:   h.config.RunCount,
				StartTime:  now,
				EndTime:    now,
				Err:        calErr,
				Error:      calErr.Error(),
			})
			continue
		}

		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

func (h *Harness) calibrate() error {
	if h.cal != nil {
		return nil
	}

	cal, err := clock.Calibrate(h.config.Clock, clock.DefaultSamples)
	if err != nil {
		h.config.Logger.Error(err, "timer calibration failed")
		return fmt.Errorf("failed to calibrate timer: %w", err)
	}

	h.config.Logger.V(1).Info("timer calibrated",
		"resolution", cal.Resolution, "reported", cal.Reported, "samples", cal.Samples)
	h.cal = &cal
	return nil
}

// runBenchmark measures one target RunCount times.
func (h *Harness) runBenchmark(bench Benchmark) (result BenchmarkResult) {
	result = BenchmarkResult{
		Name:      bench.Name,
		RunCount:  h.config.RunCount,
		StartTime: time.Now(),
		Result:    make(map[string][]float64, kernels.Count),
		RawData:   make(map[string][][]float64, kernels.Count),
	}
	defer func() {
		result.EndTime = time.Now()
		if result.Err != nil {
			result.Error = result.Err.Error()
		}
	}()

	if bench.Config == nil {
		result.ReturnCode = InvalidArgument
		result.Err = fmt.Errorf("benchmark %q has no configuration", bench.Name)
		return result
	}

	cfg := bench.Config.Clone()
	if h.config.Allocator != "" {
		cfg.Allocator = h.config.Allocator
	}
	result.Config = cfg

	if err := cfg.Validate(); err != nil {
		h.config.Logger.Error(err, "invalid configuration", "target", bench.Name)
		result.ReturnCode = InvalidConfiguration
		result.Err = err
		return result
	}

	exec := kernels.NewExecutor(cfg.Workers)
	result.Warnings = h.residencyWarnings(cfg)

	for run := 0; run < h.config.RunCount; run++ {
		h.config.Logger.V(1).Info("starting run",
			"target", bench.Name, "run", run+1, "of", h.config.RunCount)

		summary, matrix, err := h.runOnce(cfg, exec)
		if err != nil {
			h.config.Logger.Error(err, "run aborted", "target", bench.Name, "run", run+1)
			result.ReturnCode = InvalidConfiguration
			result.Err = err
			return result
		}

		summary.Target = bench.Name
		summary.Warnings = append(summary.Warnings, result.Warnings...)
		result.Runs = append(result.Runs, summary)
		collectMetrics(&result, summary, matrix)
	}

	result.ReturnCode, result.Err = classify(result)
	return result
}

// runOnce allocates, runs, validates and summarizes one run of cfg.
func (h *Harness) runOnce(
	cfg *config.Config,
	exec *kernels.Executor,
) (*report.Summary, *runner.TimingMatrix, error) {
	arrs, err := arrays.New(cfg, exec,
		arrays.WithProbe(h.config.Probe),
		arrays.WithLogger(h.config.Logger))
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := arrs.Close(); err != nil {
			h.config.Logger.Error(err, "failed to release arrays")
		}
	}()

	r := runner.New(h.config.Clock, exec, runner.WithLogger(h.config.Logger))
	matrix, err := r.Run(arrs.Vectors(), cfg.Scalar, cfg.Iterations)
	if err != nil {
		return nil, nil, err
	}

	summary := report.Summarize(matrix, cfg.ArrayLength, config.ElementSize)
	summary.Workers = exec.Workers()
	summary.Alignment = cfg.Alignment
	summary.Calibration = *h.cal
	summary.TimerErr = runner.CheckResolution(matrix, *h.cal)
	summary.Validation = validate.Validate(arrs.Vectors(), cfg.Iterations, cfg.Scalar, cfg.Seeds,
		validate.DefaultTolerance(cfg.Iterations), exec)

	if !arrs.Aligned() {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("arrays are not aligned to %d bytes", cfg.Alignment))
	}
	if summary.Validation.Drifted() && summary.Validation.Passed() {
		h.config.Logger.V(1).Info("validation passed with floating-point drift")
	}

	return summary, matrix, nil
}

func (h *Harness) residencyWarnings(cfg *config.Config) []string {
	if cfg.LastLevelCache == 0 {
		return nil
	}

	res, err := cache.CheckResidency(cfg.ArrayBytes(), cache.DefaultLLCConfig(cfg.LastLevelCache), 0)
	if err != nil {
		h.config.Logger.Error(err, "residency check skipped")
		return nil
	}

	h.config.Logger.V(1).Info("residency check",
		"ratio", res.Ratio, "hitRate", res.HitRate, "scale", res.Scale,
		"writebacks", res.Writebacks, "trafficRatio", res.TrafficRatio())
	return res.Warnings()
}

func collectMetrics(result *BenchmarkResult, s *report.Summary, m *runner.TimingMatrix) {
	for _, k := range kernels.All() {
		name := metricOf[k]
		result.Result[name] = append(result.Result[name], s.Row(k).BestRate)
		result.RawData[name] = append(result.RawData[name], durationsToSeconds(m.Kernel(k)))
	}
}

func durationsToSeconds(ds []time.Duration) []float64 {
	secs := make([]float64, len(ds))
	for i, d := range ds {
		secs[i] = d.Seconds()
	}
	return secs
}

// classify picks the return code of a completed target: a failed validation
// outranks a coarse timer, which outranks malformed metrics.
func classify(result BenchmarkResult) (ReturnCode, error) {
	for _, s := range result.Runs {
		if err := s.Validation.Err(); err != nil {
			return ValidationFailed, err
		}
	}
	for _, s := range result.Runs {
		if s.TimerErr != nil {
			return TimerResolution, s.TimerErr
		}
	}
	if err := CheckResultFormat(result.Result, result.RunCount); err != nil {
		return InvalidResult, err
	}
	if result.Config != nil {
		if err := CheckRawData(result.RawData, result.RunCount, result.Config.Iterations); err != nil {
			return InvalidResult, err
		}
	}
	return Success, nil
}

// ErrInvalidResult is returned by CheckResultFormat.
var ErrInvalidResult = errors.New("invalid result")

// CheckResultFormat verifies that every kernel metric is present with one
// finite, non-negative value per run.
func CheckResultFormat(result map[string][]float64, runCount int) error {
	for _, name := range metricOf {
		values, ok := result[name]
		if !ok {
			return fmt.Errorf("%w: metric %s is missing", ErrInvalidResult, name)
		}
		if len(values) != runCount {
			return fmt.Errorf("%w: metric %s has %d values for %d runs",
				ErrInvalidResult, name, len(values), runCount)
		}
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%w: metric %s run %d is %v", ErrInvalidResult, name, i, v)
			}
		}
	}
	return nil
}

// CheckRawData verifies that every kernel metric holds one slice of pass
// times per run, each with one finite, non-negative time per iteration.
func CheckRawData(raw map[string][][]float64, runCount, iterations int) error {
	for _, name := range metricOf {
		runs, ok := raw[name]
		if !ok {
			return fmt.Errorf("%w: raw data for %s is missing", ErrInvalidResult, name)
		}
		if len(runs) != runCount {
			return fmt.Errorf("%w: raw data for %s has %d runs, want %d",
				ErrInvalidResult, name, len(runs), runCount)
		}
		for run, times := range runs {
			if len(times) != iterations {
				return fmt.Errorf("%w: raw data for %s run %d has %d passes, want %d",
					ErrInvalidResult, name, run, len(times), iterations)
			}
			for i, v := range times {
				if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
					return fmt.Errorf("%w: raw data for %s run %d pass %d is %v",
						ErrInvalidResult, name, run, i, v)
				}
			}
		}
	}
	return nil
}

// metricNames returns the keys of m in sorted order.
func metricNames(m map[string][]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func describeErr(err error) string {
	var cerr *config.ConfigurationError
	var terr *clock.TimerResolutionError
	var verr *validate.ValidationFailure
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cerr):
		return "configuration error: " + strings.TrimPrefix(cerr.Error(), "invalid configuration: ")
	case errors.As(err, &terr):
		return "timer resolution: " + terr.Error()
	case errors.As(err, &verr):
		return verr.Error()
	default:
		return err.Error()
	}
}
