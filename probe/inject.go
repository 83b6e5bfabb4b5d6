package probe

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultBuildFile is the build description the probe is appended to.
const DefaultBuildFile = "build.sbt"

// Injector adds a task definition to the build description in dir.
type Injector interface {
	InjectTask(dir, name, body string) error
}

// AppendInjector injects tasks by appending their text to the build file.
// The build file is not parsed; whether appending is valid is left to the
// build tool to decide when it loads the project.
type AppendInjector struct {
	// BuildFile is relative to the build root. Empty means DefaultBuildFile.
	BuildFile string
}

// InjectTask appends body to the build file. The file must already exist.
func (i AppendInjector) InjectTask(dir, name, body string) error {
	buildFile := i.BuildFile
	if buildFile == "" {
		buildFile = DefaultBuildFile
	}
	path := filepath.Join(dir, buildFile)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("failed to open build file for task %s: %w", name, err)
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return fmt.Errorf("failed to append task %s to %s: %w", name, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to append task %s to %s: %w", name, path, err)
	}
	return nil
}
