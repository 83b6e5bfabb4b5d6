package cli

// This file contains the prepare command, which runs the full setup
// pipeline for one or more projects.

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/perfgo/compilebench/compiler"
	"github.com/perfgo/compilebench/config"
	"github.com/perfgo/compilebench/manifest"
	"github.com/perfgo/compilebench/model"
	"github.com/perfgo/compilebench/pipeline"
	"github.com/perfgo/compilebench/probe"
	"github.com/perfgo/compilebench/source"
	"github.com/perfgo/compilebench/stageprof"
	"github.com/urfave/cli/v2"
)

func (a *App) prepare(ctx *cli.Context) error {
	suite, err := a.loadSuite(ctx)
	if err != nil {
		return err
	}

	refs, err := selectProjects(ctx, suite)
	if err != nil {
		return err
	}

	cleanup := ctx.Bool("cleanup-failed")

	acquirer := source.NewAcquirer(a.logger, source.NewGit(a.logger))
	acquirer.TempDir = ctx.String("temp-dir")
	acquirer.RemoveOnFailure = cleanup

	prober, err := a.newProbe(suite.BuildTool, suite.BuildFile)
	if err != nil {
		return err
	}

	provider, err := compiler.NewExternal(a.logger, suite.Compiler)
	if err != nil {
		return err
	}

	p := pipeline.New(a.logger, acquirer, prober, provider)
	p.RemoveOnFailure = cleanup

	if path := ctx.String("stage-profile"); path != "" {
		p.Recorder = stageprof.New()
		defer func() {
			if err := p.Recorder.WriteFile(path); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to write stage profile")
			} else {
				a.logger.Info().Str("path", path).Msg("Stage profile written")
			}
		}()
	}

	manifestDir := ctx.String("manifest-dir")

	for _, ref := range refs {
		start := time.Now()
		prepared, err := p.Run(ctx.Context, ref)
		if err != nil {
			a.logger.Error().Err(err).Str("project", ref.DisplayName()).Msg("Failed to prepare project")
			return err
		}

		for i, job := range prepared.Jobs {
			a.logger.Info().
				Int("job", i).
				Str("subproject", job.Subproject).
				Int("sources", len(job.Metadata.Sources)).
				Str("output", job.OutputDir).
				Msg("Compile job ready")
		}

		if manifestDir != "" {
			path := filepath.Join(manifestDir, ref.DisplayName()+".json")
			if err := manifest.Write(path, manifest.New(ref, prepared, start)); err != nil {
				return err
			}
			a.logger.Info().Str("path", path).Msg("Manifest written")
		}
	}

	return nil
}

func (a *App) loadSuite(ctx *cli.Context) (*config.Suite, error) {
	suite := &config.Suite{}
	if path := ctx.String("config"); path != "" {
		s, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		suite = s
		a.logger.Debug().Str("path", path).Int("projects", len(suite.Projects)).Msg("Loaded suite")
	}

	// Flags override suite settings
	if v := ctx.String("build-tool"); v != "" {
		suite.BuildTool = v
	}
	if v := ctx.String("build-file"); v != "" {
		suite.BuildFile = v
	}
	if v := ctx.String("compiler"); v != "" {
		suite.Compiler = v
	}
	return suite, nil
}

// selectProjects returns the project given by --repo flags, the suite project
// named by --project, or every suite project.
func selectProjects(ctx *cli.Context, suite *config.Suite) ([]model.ProjectReference, error) {
	if repo := ctx.String("repo"); repo != "" {
		ref := model.ProjectReference{
			Name:             ctx.String("name"),
			Repository:       repo,
			Revision:         ctx.String("revision"),
			Subprojects:      ctx.StringSlice("subproject"),
			UseHostClasspath: ctx.Bool("use-host-classpath"),
		}
		if err := config.ValidateProject(ref); err != nil {
			return nil, fmt.Errorf("invalid project: %w", err)
		}
		return []model.ProjectReference{ref}, nil
	}

	if name := ctx.String("project"); name != "" {
		ref, err := suite.Project(name)
		if err != nil {
			return nil, err
		}
		return []model.ProjectReference{ref}, nil
	}

	if len(suite.Projects) == 0 {
		return nil, errors.New("no projects to prepare: pass --config or --repo, --revision and --subproject")
	}
	return suite.Projects, nil
}

func (a *App) newProbe(buildTool, buildFile string) (*probe.Probe, error) {
	tool, err := probe.NewCommand(a.logger, buildTool)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("build_tool", tool.String()).Msg("Using build tool")
	return probe.New(a.logger, probe.AppendInjector{BuildFile: buildFile}, tool), nil
}
