package manifest

// This file contains job manifest utilities for recording and loading
// prepared compile jobs.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/perfgo/compilebench/model"
	"github.com/perfgo/compilebench/pipeline"
	"github.com/rs/zerolog"
)

type Entry struct {
	Manifest model.Manifest
	Path     string
}

type commandLiner interface {
	CommandLine(sources []string) string
}

// New builds the manifest of a successful pipeline run.
func New(ref model.ProjectReference, prepared *pipeline.Prepared, start time.Time) model.Manifest {
	m := model.Manifest{
		ID:         uuid.NewString(),
		Project:    ref.DisplayName(),
		Repository: ref.Repository,
		Revision:   ref.Revision,
		Commit:     prepared.Tree.Commit,
		WorkDir:    prepared.Tree.Dir,
		Timestamp:  start,
		Duration:   time.Since(start),
		Jobs:       make([]model.ManifestJob, 0, len(prepared.Jobs)),
	}

	for _, job := range prepared.Jobs {
		cfg := job.Compiler.Config()
		mj := model.ManifestJob{
			Subproject: job.Subproject,
			OutputDir:  job.OutputDir,
			Sources:    job.Metadata.Sources,
			Classpath:  cfg.Classpath,
			Options:    cfg.Options,
		}
		if cl, ok := job.Compiler.(commandLiner); ok {
			mj.CommandLine = cl.CommandLine(job.Metadata.Sources)
		}
		m.Jobs = append(m.Jobs, mj)
	}
	return m
}

// Write stores m as indented JSON at path, creating parent directories.
func Write(path string, m model.Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load parses a manifest file.
func Load(path string) (model.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Manifest{}, err
	}

	var m model.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return model.Manifest{}, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}

// LoadDir loads every *.json manifest below dir. Files that fail to parse are
// logged and skipped.
func LoadDir(logger zerolog.Logger, dir string) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		m, err := Load(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to parse manifest")
			return nil
		}
		entries = append(entries, Entry{
			Manifest: m,
			Path:     path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk manifest directory: %w", err)
	}

	return entries, nil
}
