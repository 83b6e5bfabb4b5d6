package compiler

import (
	"sync"

	"github.com/rs/zerolog"
)

// LenientReporter logs diagnostics and never aborts a run, so benchmark runs
// survive warnings and even errors.
type LenientReporter struct {
	logger zerolog.Logger

	mu     sync.Mutex
	counts map[Severity]int
}

// NewLenientReporter creates a LenientReporter logging to logger.
func NewLenientReporter(logger zerolog.Logger) *LenientReporter {
	return &LenientReporter{
		logger: logger,
		counts: make(map[Severity]int),
	}
}

func (r *LenientReporter) Report(d Diagnostic) {
	r.mu.Lock()
	r.counts[d.Severity]++
	r.mu.Unlock()

	r.logger.Debug().
		Str("severity", d.Severity.String()).
		Str("file", d.File).
		Int("line", d.Line).
		Msg(d.Message)
}

func (r *LenientReporter) Abort(Diagnostic) bool {
	return false
}

// Count returns how many diagnostics of severity s were reported.
func (r *LenientReporter) Count(s Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[s]
}

// Collector is a Callback that keeps results in memory.
type Collector struct {
	mu      sync.Mutex
	results []Result
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Done(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

// Results returns a copy of the collected results in completion order.
func (c *Collector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}
