package pipeline

import "fmt"

// Stage identifies the pipeline step that produced an error.
type Stage string

const (
	StageAcquire   Stage = "acquire"
	StageExtract   Stage = "extract"
	StageProvision Stage = "provision"
)

// Error reports which stage and subproject a pipeline run failed in.
// Err wraps the component error, e.g. probe.ErrOutputFormat.
type Error struct {
	Stage   Stage
	Project string
	// Subproject and Index are unset for StageAcquire.
	Subproject string
	Index      int
	Err        error
}

func (e *Error) Error() string {
	if e.Subproject == "" {
		return fmt.Sprintf("project %s: %s: %v", e.Project, e.Stage, e.Err)
	}
	return fmt.Sprintf("project %s: %s subproject %s (#%d): %v", e.Project, e.Stage, e.Subproject, e.Index, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
