package model

import (
	"path"
	"strings"
)

// ProjectReference describes a project to prepare for benchmarking.
// It is created by the caller and never mutated.
type ProjectReference struct {
	// Name used in logs, profiles and manifests
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Repository locator understood by the source control client
	Repository string `json:"repository" yaml:"repository"`
	// Revision to pin the checkout to (commit, tag or branch)
	Revision string `json:"revision" yaml:"revision"`
	// Subprojects to extract, in the order jobs are produced
	Subprojects []string `json:"subprojects" yaml:"subprojects"`
	// Let the compiler also use the host JVM classpath
	UseHostClasspath bool `json:"use_host_classpath,omitempty" yaml:"useHostClasspath,omitempty"`
}

// DisplayName returns Name, or the repository base name without a .git suffix.
func (p ProjectReference) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	base := path.Base(strings.TrimSuffix(strings.TrimRight(p.Repository, "/"), ".git"))
	if base == "." || base == "/" {
		return p.Repository
	}
	return base
}

// Metadata is the compilation setup a subproject used in its real build.
type Metadata struct {
	// Absolute paths of all compile sources
	Sources []string `json:"sources"`
	// Compile classpath entries joined by the platform path list separator
	Classpath string `json:"classpath"`
	// Compiler flags in build order
	Options []string `json:"options"`
}
