package probe

// tool.go runs the external build tool.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
)

// DefaultBuildTool is the build tool command used when none is configured.
const DefaultBuildTool = "sbt"

// Tool runs a named task of the build in dir.
type Tool interface {
	Run(ctx context.Context, dir, task string) error
}

// Command runs the build tool as a subprocess: <argv...> <task>.
type Command struct {
	logger zerolog.Logger
	argv   []string
}

// NewCommand creates a Command from a shell-style command string such as
// "sbt -batch -Dsbt.log.noformat=true".
func NewCommand(logger zerolog.Logger, command string) (*Command, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultBuildTool
	}
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid build tool command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("invalid build tool command %q: empty", command)
	}
	return &Command{logger: logger, argv: argv}, nil
}

// String returns the shell-quoted command without the task.
func (c *Command) String() string {
	return shellescape.QuoteCommand(c.argv)
}

// Run executes task in dir and fails if the tool cannot be started or exits non-zero.
func (c *Command) Run(ctx context.Context, dir, task string) error {
	args := append(append([]string{}, c.argv[1:]...), task)
	cmd := exec.CommandContext(ctx, c.argv[0], args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug().
		Str("dir", dir).
		Str("command", shellescape.QuoteCommand(append([]string{c.argv[0]}, args...))).
		Msg("Executing build tool")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with code %d: %s", c.argv[0], exitErr.ExitCode(), summarize(stdout.String(), stderr.String()))
		}
		return fmt.Errorf("failed to start %s: %w", c.argv[0], err)
	}

	c.logger.Debug().Int("stdout_bytes", stdout.Len()).Msg("Build tool finished")
	return nil
}

// summarize picks the most useful line of build tool output for an error
// message: the first sbt error line, else the first stderr line, else the
// last stdout line.
func summarize(stdout, stderr string) string {
	for _, out := range []string{stdout, stderr} {
		for _, line := range strings.Split(out, "\n") {
			if strings.Contains(line, "[error]") {
				return strings.TrimSpace(line)
			}
		}
	}
	for _, line := range strings.Split(stderr, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return last
	}
	return "no output"
}
