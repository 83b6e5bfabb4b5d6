package compiler

// external.go drives a compiler executable such as scalac.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
)

// DefaultCommand is the compiler executable used when none is configured.
const DefaultCommand = "scalac"

// External is a Provider running the compiler as a subprocess per Run.
type External struct {
	logger zerolog.Logger
	argv   []string
}

// NewExternal creates an External from a shell-style command string.
func NewExternal(logger zerolog.Logger, command string) (*External, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid compiler command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("invalid compiler command %q: empty", command)
	}
	return &External{logger: logger, argv: argv}, nil
}

// Configure precomputes the argument vector shared by every run. A nil
// Callback or Reporter is replaced as in Provision.
func (e *External) Configure(cfg Config) Handle {
	cfg = withDefaults(cfg)
	args := slices.Clone(e.argv)
	args = append(args, cfg.Options...)
	args = append(args, "-d", cfg.OutputDir)
	if cfg.Classpath != "" {
		args = append(args, "-classpath", cfg.Classpath)
	}
	return &externalHandle{
		logger: e.logger.With().Str("output", cfg.OutputDir).Logger(),
		args:   args,
		cfg:    cfg,
	}
}

type externalHandle struct {
	logger zerolog.Logger
	args   []string
	cfg    Config
}

func (h *externalHandle) Config() Config {
	return h.cfg
}

// CommandLine returns the shell-quoted invocation for sources.
func (h *externalHandle) CommandLine(sources []string) string {
	return shellescape.QuoteCommand(append(slices.Clone(h.args), sources...))
}

// Run compiles sources. A compiler exiting non-zero is reported through the
// result; an error is returned only if the compiler could not run or the
// reporter asked to abort.
func (h *externalHandle) Run(ctx context.Context, sources []string) (*Result, error) {
	if err := os.MkdirAll(h.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	args := append(slices.Clone(h.args[1:]), sources...)
	cmd := exec.CommandContext(ctx, h.args[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	h.logger.Debug().
		Str("compiler", h.args[0]).
		Int("sources", len(sources)).
		Msg("Running compiler")

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Sources:  len(sources),
		Duration: time.Since(start),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to execute compiler: %w (stderr: %s)", err, stderr.String())
		}
		res.ExitCode = exitErr.ExitCode()
	}
	res.Success = res.ExitCode == 0

	for _, out := range []string{stdout.String(), stderr.String()} {
		for _, d := range ParseDiagnostics(out) {
			res.Diagnostics = append(res.Diagnostics, d)
			h.cfg.Reporter.Report(d)
			if h.cfg.Reporter.Abort(d) {
				return res, fmt.Errorf("compilation aborted: %s", d)
			}
		}
	}

	h.cfg.Callback.Done(*res)
	return res, nil
}

var (
	// /path/A.scala:12: warning: message
	positionedDiagnostic = regexp.MustCompile(`^(.+?):(\d+): (error|warning|info): (.*)$`)
	// warning: there were 2 deprecation warnings
	globalDiagnostic = regexp.MustCompile(`^(error|warning|info): (.*)$`)
)

// ParseDiagnostics extracts scalac-style diagnostics from compiler output.
// Continuation lines (source excerpts, carets) are ignored.
func ParseDiagnostics(output string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := positionedDiagnostic.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[2])
			diags = append(diags, Diagnostic{
				Severity: parseSeverity(m[3]),
				File:     m[1],
				Line:     n,
				Message:  m[4],
			})
			continue
		}
		if m := globalDiagnostic.FindStringSubmatch(line); m != nil {
			diags = append(diags, Diagnostic{
				Severity: parseSeverity(m[1]),
				Message:  m[2],
			})
		}
	}
	return diags
}

func parseSeverity(s string) Severity {
	switch s {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
