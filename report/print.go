package report

import (
	"fmt"
	"io"
	"time"
)

const rule = "-------------------------------------------------------------"

const (
	mebibyte = 1 << 20
	gibibyte = 1 << 30
)

// Print writes the summary as a fixed-width table preceded by the run
// metadata.
func (s *Summary) Print(w io.Writer) {
	_, _ = fmt.Fprintln(w, rule)
	_, _ = fmt.Fprintf(w, "STREAM memory bandwidth, target %s\n", s.Target)
	_, _ = fmt.Fprintln(w, rule)
	_, _ = fmt.Fprintf(w, "Array size = %d (elements), %d bytes per element\n",
		s.ArrayLength, s.ElementSize)
	_, _ = fmt.Fprintf(w, "Memory per array = %.1f MiB (= %.1f GiB).\n",
		float64(s.ArrayBytes())/mebibyte, float64(s.ArrayBytes())/gibibyte)
	_, _ = fmt.Fprintf(w, "Total memory required = %.1f MiB (= %.1f GiB).\n",
		float64(s.Footprint())/mebibyte, float64(s.Footprint())/gibibyte)
	_, _ = fmt.Fprintf(w, "Each kernel will be executed %d times.\n", s.Iterations)
	if s.WarmupIncluded {
		_, _ = fmt.Fprintln(w, " Only one iteration was run; its times include the warm-up.")
	} else {
		_, _ = fmt.Fprintln(w, " The *best* time for each kernel (excluding the first iteration)")
		_, _ = fmt.Fprintln(w, " will be used to compute the reported bandwidth.")
	}
	if s.Workers > 0 {
		_, _ = fmt.Fprintf(w, "Workers = %d, alignment = %d bytes\n", s.Workers, s.Alignment)
	}
	s.printClock(w)
	_, _ = fmt.Fprintln(w, rule)

	s.printValidityBanner(w)

	_, _ = fmt.Fprintf(w, "%-12s%14s%13s%13s%13s\n",
		"Function", "Best Rate MB/s", "Avg time", "Min time", "Max time")
	for _, r := range s.Rows {
		_, _ = fmt.Fprintf(w, "%-12s%14.1f%13.6f%13.6f%13.6f\n",
			r.Kernel.String()+":",
			r.BestRate/1e6,
			r.AvgTime.Seconds(),
			r.MinTime.Seconds(),
			r.MaxTime.Seconds())
	}
	_, _ = fmt.Fprintln(w, rule)
	_, _ = fmt.Fprintln(w, "Rates are in MB/s (10^6 bytes per second).")

	s.printValidation(w)
	for _, warning := range s.Warnings {
		_, _ = fmt.Fprintf(w, "WARNING: %s\n", warning)
	}
}

func (s *Summary) printClock(w io.Writer) {
	cal := s.Calibration
	if cal.Resolution <= 0 {
		return
	}

	_, _ = fmt.Fprintf(w, "Your clock granularity/precision appears to be %s", cal.Resolution)
	if cal.Reported > 0 {
		_, _ = fmt.Fprintf(w, " (the OS reports %s)", cal.Reported)
	}
	_, _ = fmt.Fprintln(w, ".")
	_, _ = fmt.Fprintf(w, "Each test below will take on the order of %d microseconds.\n",
		s.Typical/time.Microsecond)
	_, _ = fmt.Fprintf(w, "   (= %d clock ticks)\n", cal.Ticks(s.Typical))
}

func (s *Summary) printValidityBanner(w io.Writer) {
	if s.Validation != nil && !s.Validation.Passed() {
		_, _ = fmt.Fprintln(w, "*** FAILED VALIDATION: the rates below cannot be trusted ***")
	}
	if s.TimerErr != nil {
		_, _ = fmt.Fprintf(w, "*** UNRELIABLE TIMING: %v ***\n", s.TimerErr)
	}
}

func (s *Summary) printValidation(w io.Writer) {
	v := s.Validation
	if v == nil {
		return
	}

	if v.Passed() {
		_, _ = fmt.Fprintf(w, "Solution Validates: relative error within %.6e on all three arrays\n",
			v.Tolerance.Relative)
		return
	}

	_, _ = fmt.Fprintln(w, "Failed Validation:")
	for _, a := range v.Arrays {
		if a.Passed() {
			continue
		}
		_, _ = fmt.Fprintf(w, "  Array %s: %d of %d elements beyond tolerance, expected %e, max abs error %e, max rel error %e\n",
			a.Name, a.Failed, a.Exact+a.Drift+a.Failed, a.Expected, a.MaxAbsErr, a.MaxRelErr)
		_, _ = fmt.Fprintf(w, "           first failures at %v\n", a.FirstFailures)
	}
}
