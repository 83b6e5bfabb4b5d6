// Package config loads benchmark suite files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/perfgo/compilebench/model"
	"gopkg.in/yaml.v3"
)

// Suite describes the projects to prepare and the tools to prepare them with.
type Suite struct {
	// BuildTool is the build tool command, e.g. "sbt -batch"
	BuildTool string `yaml:"buildTool,omitempty"`
	// BuildFile is the build description probes are appended to
	BuildFile string `yaml:"buildFile,omitempty"`
	// Compiler is the compiler command jobs are provisioned with
	Compiler string `yaml:"compiler,omitempty"`
	// Projects in the order they are prepared
	Projects []model.ProjectReference `yaml:"projects"`
}

// Load reads and validates a suite file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a suite from YAML.
func Parse(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse suite yaml: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every project can be prepared.
func (s *Suite) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, p := range s.Projects {
		if err := ValidateProject(p); err != nil {
			errs = append(errs, fmt.Errorf("project #%d: %w", i, err))
		}
		name := p.DisplayName()
		if seen[name] {
			errs = append(errs, fmt.Errorf("project #%d: duplicate name %q", i, name))
		}
		seen[name] = true
	}
	return errors.Join(errs...)
}

// ValidateProject checks a single project reference.
func ValidateProject(p model.ProjectReference) error {
	if p.Repository == "" {
		return errors.New("repository is required")
	}
	if p.Revision == "" {
		return errors.New("revision is required")
	}
	if len(p.Subprojects) == 0 {
		return errors.New("at least one subproject is required")
	}
	seen := make(map[string]bool, len(p.Subprojects))
	for _, sub := range p.Subprojects {
		if err := validateSubproject(sub); err != nil {
			return err
		}
		// each subproject appends its own task to the shared build file
		if seen[sub] {
			return fmt.Errorf("subproject %q listed more than once", sub)
		}
		seen[sub] = true
	}
	return nil
}

// validateSubproject rejects names that cannot be used as a file name in the
// build root.
func validateSubproject(sub string) error {
	switch {
	case sub == "":
		return errors.New("subproject names must not be empty")
	case strings.ContainsAny(sub, `/\`):
		return fmt.Errorf("subproject %q must not contain path separators", sub)
	case strings.Contains(sub, ".."):
		return fmt.Errorf("subproject %q must not contain \"..\"", sub)
	}
	return nil
}

// Project returns the project named name.
func (s *Suite) Project(name string) (model.ProjectReference, error) {
	for _, p := range s.Projects {
		if p.DisplayName() == name {
			return p, nil
		}
	}
	return model.ProjectReference{}, fmt.Errorf("project %q not found in suite", name)
}
