// Package probe extracts the sources, classpath and compiler options of a
// build subproject by injecting a task into its build definition and running
// the build tool.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/perfgo/compilebench/model"
	"github.com/rs/zerolog"
)

var (
	// ErrBuildFileAppend is returned when the probe task cannot be injected.
	ErrBuildFileAppend = errors.New("build file append failed")
	// ErrBuildToolInvocation is returned when the build tool cannot be started or fails.
	ErrBuildToolInvocation = errors.New("build tool invocation failed")
	// ErrOutputFormat is returned when the probe output is missing or malformed.
	ErrOutputFormat = errors.New("malformed probe output")
)

// Probe extracts subproject metadata from a checked out build.
type Probe struct {
	logger   zerolog.Logger
	injector Injector
	tool     Tool
}

// New creates a Probe.
func New(logger zerolog.Logger, injector Injector, tool Tool) *Probe {
	return &Probe{
		logger:   logger,
		injector: injector,
		tool:     tool,
	}
}

// Extract returns the compilation setup of subproject in the build rooted at dir.
// Injection permanently modifies the build definition in dir.
func (p *Probe) Extract(ctx context.Context, dir, subproject string) (model.Metadata, error) {
	task := TaskName(subproject)
	outPath := filepath.Join(dir, OutputFileName(subproject))
	logger := p.logger.With().Str("subproject", subproject).Str("task", task).Logger()

	logger.Debug().Msg("Injecting probe task")
	if err := p.injector.InjectTask(dir, task, Snippet(subproject)); err != nil {
		return model.Metadata{}, fmt.Errorf("%w: %w", ErrBuildFileAppend, err)
	}

	// a stale file would hide a task that silently does nothing
	if err := os.Remove(outPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Str("file", outPath).Msg("Failed to remove stale probe output")
	}

	logger.Info().Msg("Running build tool")
	if err := p.tool.Run(ctx, dir, task); err != nil {
		return model.Metadata{}, fmt.Errorf("%w: %w", ErrBuildToolInvocation, err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%w: failed to read %s: %v", ErrOutputFormat, outPath, err)
	}

	md, err := Parse(data)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%s: %w", outPath, err)
	}

	logger.Info().
		Int("sources", len(md.Sources)).
		Int("options", len(md.Options)).
		Msg("Extracted build metadata")

	return md, nil
}
