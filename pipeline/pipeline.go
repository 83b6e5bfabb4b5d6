// Package pipeline turns a project reference into compile jobs: acquire the
// sources, probe every subproject's build metadata and provision a compiler
// for it. The first failure aborts the whole run.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/perfgo/compilebench/compiler"
	"github.com/perfgo/compilebench/model"
	"github.com/perfgo/compilebench/source"
	"github.com/perfgo/compilebench/stageprof"
	"github.com/rs/zerolog"
)

// OutputRoot is the directory, relative to the working tree, holding the
// compiler output of every job.
const OutputRoot = ".compilebench/classes"

// Acquirer produces a pinned working tree.
type Acquirer interface {
	Acquire(ctx context.Context, repository, revision string) (*source.WorkingTree, error)
}

// Extractor returns the build metadata of a subproject.
type Extractor interface {
	Extract(ctx context.Context, dir, subproject string) (model.Metadata, error)
}

// CompileJob is one subproject ready to be compiled repeatedly.
type CompileJob struct {
	Subproject string
	WorkDir    string
	OutputDir  string
	Metadata   model.Metadata
	Compiler   compiler.Handle
	// Results collects the outcome of every run of Compiler.
	Results *compiler.Collector
}

// Run compiles the job's sources once.
func (j *CompileJob) Run(ctx context.Context) (*compiler.Result, error) {
	return j.Compiler.Run(ctx, j.Metadata.Sources)
}

// Prepared is the result of a successful run. The caller owns Tree.
type Prepared struct {
	Tree *source.WorkingTree
	Jobs []*CompileJob
}

// Pipeline prepares compile jobs for projects.
type Pipeline struct {
	logger    zerolog.Logger
	acquirer  Acquirer
	extractor Extractor
	provider  compiler.Provider

	// Recorder receives stage timings; may be nil.
	Recorder *stageprof.Recorder
	// Observer is notified of state transitions; may be nil.
	Observer Observer
	// RemoveOnFailure deletes the working tree when a later stage fails.
	RemoveOnFailure bool
}

// New creates a Pipeline.
func New(logger zerolog.Logger, acquirer Acquirer, extractor Extractor, provider compiler.Provider) *Pipeline {
	return &Pipeline{
		logger:    logger,
		acquirer:  acquirer,
		extractor: extractor,
		provider:  provider,
	}
}

// Run prepares one compile job per subproject of ref, in request order. On
// error no jobs are returned and subprojects after the failing one are never
// attempted. The returned error is an *Error.
func (p *Pipeline) Run(ctx context.Context, ref model.ProjectReference) (*Prepared, error) {
	name := ref.DisplayName()
	logger := p.logger.With().Str("project", name).Logger()
	start := time.Now()

	p.transition(Transition{State: StateStart, Index: -1})
	p.transition(Transition{State: StateAcquiring, Index: -1})

	stop := p.Recorder.Start(name, string(StageAcquire))
	tree, err := p.acquirer.Acquire(ctx, ref.Repository, ref.Revision)
	stop()
	if err != nil {
		p.transition(Transition{State: StateFailed, Index: -1})
		return nil, &Error{Stage: StageAcquire, Project: name, Index: -1, Err: err}
	}

	logger.Info().
		Str("dir", tree.Dir).
		Str("commit", tree.Commit).
		Int("subprojects", len(ref.Subprojects)).
		Msg("Working tree ready")

	jobs := make([]*CompileJob, 0, len(ref.Subprojects))
	for i, sub := range ref.Subprojects {
		p.transition(Transition{State: StateExtracting, Index: i, Subproject: sub})

		stop := p.Recorder.Start(name, string(StageExtract), sub)
		md, err := p.extractor.Extract(ctx, tree.Dir, sub)
		stop()
		if err != nil {
			p.transition(Transition{State: StateFailed, Index: i, Subproject: sub})
			p.discard(tree)
			return nil, &Error{Stage: StageExtract, Project: name, Subproject: sub, Index: i, Err: err}
		}

		p.transition(Transition{State: StateProvisioning, Index: i, Subproject: sub})

		stop = p.Recorder.Start(name, string(StageProvision), sub)
		jobs = append(jobs, p.provision(logger, tree.Dir, sub, md, ref.UseHostClasspath))
		stop()
	}

	p.transition(Transition{State: StateDone, Index: -1})
	logger.Info().
		Int("jobs", len(jobs)).
		Dur("duration", time.Since(start)).
		Msg("Compile jobs prepared")

	return &Prepared{Tree: tree, Jobs: jobs}, nil
}

func (p *Pipeline) provision(logger zerolog.Logger, dir, sub string, md model.Metadata, useHostClasspath bool) *CompileJob {
	outputDir := filepath.Join(dir, filepath.FromSlash(OutputRoot), sub)
	results := compiler.NewCollector()
	reporter := compiler.NewLenientReporter(logger.With().Str("subproject", sub).Logger())

	handle := compiler.Provision(p.provider, md, outputDir, useHostClasspath, results, reporter)

	logger.Debug().
		Str("subproject", sub).
		Str("output", outputDir).
		Strs("options", handle.Config().Options).
		Msg("Compiler provisioned")

	return &CompileJob{
		Subproject: sub,
		WorkDir:    dir,
		OutputDir:  outputDir,
		Metadata:   md,
		Compiler:   handle,
		Results:    results,
	}
}

func (p *Pipeline) transition(t Transition) {
	p.logger.Debug().
		Str("state", t.State.String()).
		Int("index", t.Index).
		Str("subproject", t.Subproject).
		Msg("Pipeline transition")
	if p.Observer != nil {
		p.Observer(t)
	}
}

func (p *Pipeline) discard(tree *source.WorkingTree) {
	if !p.RemoveOnFailure {
		p.logger.Info().Str("dir", tree.Dir).Msg("Keeping working tree of failed run for inspection")
		return
	}
	if err := tree.Remove(); err != nil {
		p.logger.Warn().Err(err).Str("dir", tree.Dir).Msg("Failed to remove working tree")
	}
}
