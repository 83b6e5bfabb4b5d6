package model

import "time"

// Manifest records the jobs prepared by one pipeline run.
type Manifest struct {
	// Unique ID for this run
	ID string `json:"id"`
	// Project display name
	Project string `json:"project"`
	// Repository locator and requested revision
	Repository string `json:"repository"`
	Revision   string `json:"revision"`
	// Commit the revision resolved to, if known
	Commit string `json:"commit,omitempty"`
	// Working tree holding the checkout
	WorkDir string `json:"workdir"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Duration of the setup
	Duration time.Duration `json:"duration"`
	// Prepared jobs in request order
	Jobs []ManifestJob `json:"jobs"`
}

// ManifestJob describes a single prepared compile job.
type ManifestJob struct {
	Subproject string   `json:"subproject"`
	OutputDir  string   `json:"output_dir"`
	Sources    []string `json:"sources"`
	Classpath  string   `json:"classpath"`
	Options    []string `json:"options"`
	// Shell-quoted compiler invocation equivalent to the job
	CommandLine string `json:"command_line,omitempty"`
}
