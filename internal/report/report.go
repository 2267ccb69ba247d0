// Package report collects diagnostic context for fixture loading and diff
// profiling: captured values, warnings, and named non-fatal checks. It stands
// in for the assertion sink of whatever harness drives the engine, so the
// engine itself never decides test fatality.
package report

import (
	"fmt"
	"log"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// Recorder receives diagnostic context from the fixture engine.
//
// Capture records a named value for failure diagnosis. Warnf records a
// non-fatal condition. Check records a named pass/fail condition without
// aborting anything; callers that want continue-on-failure semantics record
// every check and combine the results themselves.
type Recorder interface {
	Capture(name string, value any)
	Warnf(format string, args ...any)
	Check(name string, ok bool, detail string) bool
}

// LogRecorder writes diagnostics through the package logger. Captures are
// suppressed unless Verbose is set; warnings and failed checks always log.
type LogRecorder struct {
	Verbose bool
}

// Capture logs a named diagnostic value when verbose.
func (r *LogRecorder) Capture(name string, value any) {
	if r.Verbose {
		Logf("capture %s=%v", name, value)
	}
}

// Warnf logs a warning.
func (r *LogRecorder) Warnf(format string, args ...any) {
	Logf("warning: "+format, args...)
}

// Check logs a failed check and returns ok unchanged.
func (r *LogRecorder) Check(name string, ok bool, detail string) bool {
	if !ok {
		Logf("check failed: %s: %s", name, detail)
	} else if r.Verbose {
		Logf("check passed: %s", name)
	}
	return ok
}

// CheckResult is one recorded check outcome.
type CheckResult struct {
	Name   string
	OK     bool
	Detail string
}

// MemRecorder accumulates diagnostics in memory for test inspection.
type MemRecorder struct {
	mu       sync.Mutex
	Captures map[string]any
	Warnings []string
	Checks   []CheckResult
}

// NewMemRecorder creates an empty MemRecorder.
func NewMemRecorder() *MemRecorder {
	return &MemRecorder{Captures: make(map[string]any)}
}

// Capture stores a named value.
func (r *MemRecorder) Capture(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Captures[name] = value
}

// Warnf stores a formatted warning.
func (r *MemRecorder) Warnf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Check stores the check outcome and returns ok unchanged.
func (r *MemRecorder) Check(name string, ok bool, detail string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Checks = append(r.Checks, CheckResult{Name: name, OK: ok, Detail: detail})
	return ok
}

// FailedChecks returns the checks that did not pass.
func (r *MemRecorder) FailedChecks() []CheckResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.OK {
			out = append(out, c)
		}
	}
	return out
}
