// Package compiler provisions compiler instances that are configured once
// and then run many times by a benchmark harness.
package compiler

import (
	"context"
	"fmt"
	"time"
)

// Severity of a compiler diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Diagnostic is a single message emitted by the compiler.
type Diagnostic struct {
	Severity Severity
	File     string // empty for global messages
	Line     int    // 0 if unknown
	Message  string
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Severity, d.Message)
}

// Result is the outcome of one compilation run.
type Result struct {
	Success     bool
	ExitCode    int
	Sources     int
	Duration    time.Duration
	Diagnostics []Diagnostic
}

// Callback receives the result of every completed run.
type Callback interface {
	Done(Result)
}

// Reporter receives diagnostics as they are produced and decides whether a
// diagnostic stops the run.
type Reporter interface {
	Report(Diagnostic)
	Abort(Diagnostic) bool
}

// Config is everything a compiler instance is bound to at construction.
type Config struct {
	Options   []string
	Classpath string
	OutputDir string
	Callback  Callback
	Reporter  Reporter
}

// Handle is a configured compiler instance. Run may be called repeatedly.
type Handle interface {
	Run(ctx context.Context, sources []string) (*Result, error)
	Config() Config
}

// Provider constructs compiler instances.
type Provider interface {
	Configure(Config) Handle
}
