package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "compilebench"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Prepare reproducible compiler benchmark jobs from real builds",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "prepare",
		Usage:  "Clone projects, probe their builds and provision one compile job per subproject",
		Action: app.prepare,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Suite file (YAML) listing projects",
			},
			&cli.StringFlag{
				Name:    "project",
				Aliases: []string{"p"},
				Usage:   "Only prepare the suite project with this name",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Project name when using --repo (default: repository base name)",
			},
			&cli.StringFlag{
				Name:  "repo",
				Usage: "Repository to clone (instead of a suite file)",
			},
			&cli.StringFlag{
				Name:  "revision",
				Usage: "Revision to check out",
			},
			&cli.StringSliceFlag{
				Name:    "subproject",
				Aliases: []string{"s"},
				Usage:   "Subproject to prepare (can be specified multiple times)",
			},
			&cli.BoolFlag{
				Name:  "use-host-classpath",
				Usage: "Let the compiler also use the host JVM classpath",
			},
			buildToolFlag(),
			buildFileFlag(),
			&cli.StringFlag{
				Name:  "compiler",
				Usage: "Compiler command jobs are provisioned with (default: scalac)",
			},
			&cli.StringFlag{
				Name:  "temp-dir",
				Usage: "Parent directory for working trees (default: system temp directory)",
			},
			&cli.StringFlag{
				Name:  "manifest-dir",
				Usage: "Write a JSON manifest per project into this directory",
			},
			&cli.StringFlag{
				Name:  "stage-profile",
				Usage: "Write a pprof profile of setup stage durations to this file",
			},
			&cli.BoolFlag{
				Name:  "cleanup-failed",
				Usage: "Remove working trees of failed runs (kept for inspection by default)",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "probe",
		Usage:  "Extract sources, classpath and compiler options from an existing checkout",
		Action: app.probe,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Build root of the checkout",
				Value: ".",
			},
			&cli.StringSliceFlag{
				Name:     "subproject",
				Aliases:  []string{"s"},
				Usage:    "Subproject to probe (can be specified multiple times)",
				Required: true,
			},
			buildToolFlag(),
			buildFileFlag(),
		},
		Description: `Appends the probe task to the build file in --dir and runs the build tool.
The build file is modified permanently; run it on a scratch checkout.`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "inspect",
		Usage:     "Show prepared jobs from a manifest file or directory",
		ArgsUsage: "<manifest.json|dir>",
		Action:    app.inspect,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "commands",
				Usage: "Print the compiler command line of each job",
			},
		},
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.RunContext(context.Background(), args)
}

// RunContext runs the app; cancelling ctx stops every subprocess it started.
func (a *App) RunContext(ctx context.Context, args []string) error {
	return a.cli.RunContext(ctx, args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		short := commit
		if len(short) > 8 {
			short = short[:8]
		}
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, short, date)
	}
}

func buildToolFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "build-tool",
		Usage: "Build tool command, e.g. \"sbt -batch\" (default: sbt)",
	}
}

func buildFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "build-file",
		Usage: "Build file the probe task is appended to (default: build.sbt)",
	}
}
