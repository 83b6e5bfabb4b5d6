package cli

// This file contains the inspect command for displaying recorded
// job manifests.

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/perfgo/compilebench/manifest"
	"github.com/urfave/cli/v2"
)

func (a *App) inspect(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one manifest file or directory")
	}
	path := ctx.Args().First()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}

	var entries []manifest.Entry
	if info.IsDir() {
		entries, err = manifest.LoadDir(a.logger, path)
		if err != nil {
			return err
		}
	} else {
		m, err := manifest.Load(path)
		if err != nil {
			return err
		}
		entries = []manifest.Entry{{Manifest: m, Path: path}}
	}

	if len(entries) == 0 {
		fmt.Println("No manifests found")
		return nil
	}

	// Sort by timestamp (newest first)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Manifest.Timestamp.After(entries[j].Manifest.Timestamp)
	})

	showCommands := ctx.Bool("commands")

	for _, entry := range entries {
		m := entry.Manifest
		timestamp := m.Timestamp.Format("2006-01-02 15:04:05")
		duration := m.Duration.Round(time.Millisecond)

		// Show short ID (first 8 chars)
		shortID := m.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		fmt.Printf("%s  %s  [%s]  jobs=%d  id=%s\n", m.Project, timestamp, duration, len(m.Jobs), shortID)
		fmt.Printf("   Repository: %s @ %s", m.Repository, m.Revision)
		if m.Commit != "" {
			shortCommit := m.Commit
			if len(shortCommit) > 8 {
				shortCommit = shortCommit[:8]
			}
			fmt.Printf(" (%s)", shortCommit)
		}
		fmt.Println()
		fmt.Printf("   Working tree: %s\n", m.WorkDir)

		for _, job := range m.Jobs {
			fmt.Printf("   - %s: %d sources, %d classpath entries, options: %s\n",
				job.Subproject, len(job.Sources), len(filepath.SplitList(job.Classpath)), strings.Join(job.Options, " "))
			if showCommands && job.CommandLine != "" {
				fmt.Printf("     %s\n", job.CommandLine)
			}
		}
		fmt.Printf("   %s\n", entry.Path)
		fmt.Println()
	}

	return nil
}
