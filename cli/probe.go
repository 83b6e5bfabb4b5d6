package cli

// This file contains the probe command for extracting build metadata
// from an existing checkout.

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
)

func (a *App) probe(ctx *cli.Context) error {
	dir, err := filepath.Abs(ctx.String("dir"))
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}

	prober, err := a.newProbe(ctx.String("build-tool"), ctx.String("build-file"))
	if err != nil {
		return err
	}

	for _, sub := range ctx.StringSlice("subproject") {
		md, err := prober.Extract(ctx.Context, dir, sub)
		if err != nil {
			a.logger.Error().Err(err).Str("subproject", sub).Msg("Failed to probe subproject")
			return err
		}

		fmt.Printf("=== %s ===\n", sub)
		fmt.Printf("Sources (%d):\n", len(md.Sources))
		for _, src := range md.Sources {
			fmt.Printf("   %s\n", src)
		}
		fmt.Printf("Classpath:\n")
		for _, entry := range filepath.SplitList(md.Classpath) {
			fmt.Printf("   %s\n", entry)
		}
		fmt.Printf("Options: %s\n\n", strings.Join(md.Options, " "))
	}

	return nil
}
