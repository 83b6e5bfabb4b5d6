package source

// git.go provides the source control client backed by the git binary.

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"
)

// Git runs source control operations through the git command line.
type Git struct {
	logger zerolog.Logger
	binary string
}

// GitOption is a function that configures a Git client.
type GitOption func(*Git)

// WithBinary sets the git executable to use.
func WithBinary(path string) GitOption {
	return func(g *Git) {
		g.binary = path
	}
}

// NewGit creates a git client.
func NewGit(logger zerolog.Logger, opts ...GitOption) *Git {
	g := &Git{
		logger: logger,
		binary: "git",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Clone clones url into dir. dir must not exist or be empty.
func (g *Git) Clone(ctx context.Context, url, dir string) error {
	if _, err := g.run(ctx, "", "clone", "--quiet", "--", url, dir); err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return nil
}

// Checkout checks out revision inside the clone at dir.
func (g *Git) Checkout(ctx context.Context, dir, revision string) error {
	if _, err := g.run(ctx, dir, "checkout", "--quiet", revision); err != nil {
		return fmt.Errorf("failed to check out %s: %w", revision, err)
	}
	return nil
}

// Head returns the commit hash HEAD points to.
func (g *Git) Head(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get git commit: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, g.binary, args...)
	// never block on credential prompts
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.logger.Debug().
		Str("command", shellescape.QuoteCommand(append([]string{g.binary}, args...))).
		Msg("Executing git")

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
