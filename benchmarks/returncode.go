package benchmarks

// ReturnCode classifies the outcome of one benchmark target.
type ReturnCode int

// Return codes. Their numeric values are the process exit statuses; see
// Severity for how they rank.
const (
	Success ReturnCode = iota
	InvalidArgument
	InvalidConfiguration
	TimerResolution
	ValidationFailed
	InvalidResult
)

var returnCodeNames = map[ReturnCode]string{
	Success:              "SUCCESS",
	InvalidArgument:      "INVALID_ARGUMENT",
	InvalidConfiguration: "INVALID_CONFIGURATION",
	TimerResolution:      "TIMER_RESOLUTION",
	ValidationFailed:     "VALIDATION_FAILED",
	InvalidResult:        "INVALID_RESULT",
}

// String returns the upper-case name of the code.
func (c ReturnCode) String() string {
	if name, ok := returnCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText encodes the code by name.
func (c ReturnCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// severities ranks the codes: a target that could not run at all is worse
// than one whose arrays failed validation, which is worse than one timed
// with a coarse clock, which is worse than malformed metrics.
var severities = map[ReturnCode]int{
	Success:              0,
	InvalidResult:        1,
	TimerResolution:      2,
	ValidationFailed:     3,
	InvalidConfiguration: 4,
	InvalidArgument:      5,
}

// Severity returns the rank of the code; higher is worse. Unknown codes
// rank above all others.
func (c ReturnCode) Severity() int {
	if s, ok := severities[c]; ok {
		return s
	}
	return len(severities)
}

// ExitCode returns the process exit status for the code. Only Success maps
// to zero.
func (c ReturnCode) ExitCode() int {
	return int(c)
}

// ExitCode returns the exit status for a whole harness run: that of the
// most severe return code of any result.
func ExitCode(results []BenchmarkResult) int {
	worst := Success
	for _, r := range results {
		if r.ReturnCode.Severity() > worst.Severity() {
			worst = r.ReturnCode
		}
	}
	return worst.ExitCode()
}
