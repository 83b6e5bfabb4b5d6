package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

var (
	// ErrClone is returned when the repository cannot be cloned.
	ErrClone = errors.New("clone failed")
	// ErrCheckout is returned when the requested revision cannot be checked out.
	ErrCheckout = errors.New("checkout failed")
)

// SourceControl is the capability needed to obtain a pinned checkout.
type SourceControl interface {
	Clone(ctx context.Context, url, dir string) error
	Checkout(ctx context.Context, dir, revision string) error
}

// headResolver is implemented by clients that can report the checked out commit.
type headResolver interface {
	Head(ctx context.Context, dir string) (string, error)
}

// WorkingTree is a revision-pinned checkout in a temporary directory.
// It is owned by whoever called Acquire.
type WorkingTree struct {
	Dir        string
	Repository string
	Revision   string
	// Commit is the resolved HEAD, empty if it could not be determined
	Commit string
}

// Remove deletes the working tree from disk.
func (t *WorkingTree) Remove() error {
	return os.RemoveAll(t.Dir)
}

// Acquirer clones repositories into fresh temporary directories.
type Acquirer struct {
	logger zerolog.Logger
	scm    SourceControl

	// TempDir is the parent for working trees; empty means os.TempDir().
	TempDir string
	// RemoveOnFailure deletes the directory when clone or checkout fails.
	// Off by default so failed trees can be inspected afterwards.
	RemoveOnFailure bool
}

// NewAcquirer creates an Acquirer using scm for clone and checkout.
func NewAcquirer(logger zerolog.Logger, scm SourceControl) *Acquirer {
	return &Acquirer{
		logger: logger,
		scm:    scm,
	}
}

// Acquire clones repository into a new temporary directory and checks out revision.
// The returned error wraps ErrClone or ErrCheckout.
func (a *Acquirer) Acquire(ctx context.Context, repository, revision string) (*WorkingTree, error) {
	dir, err := os.MkdirTemp(a.TempDir, "compilebench-")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create working directory: %v", ErrClone, err)
	}

	a.logger.Info().
		Str("repository", repository).
		Str("dir", dir).
		Msg("Cloning repository")

	if err := a.scm.Clone(ctx, repository, dir); err != nil {
		a.discard(dir)
		return nil, fmt.Errorf("%w: %w", ErrClone, err)
	}

	a.logger.Info().
		Str("revision", revision).
		Msg("Checking out revision")

	if err := a.scm.Checkout(ctx, dir, revision); err != nil {
		a.discard(dir)
		return nil, fmt.Errorf("%w: %w", ErrCheckout, err)
	}

	tree := &WorkingTree{
		Dir:        dir,
		Repository: repository,
		Revision:   revision,
	}

	if hr, ok := a.scm.(headResolver); ok {
		if commit, err := hr.Head(ctx, dir); err == nil {
			tree.Commit = commit
		} else {
			a.logger.Debug().Err(err).Msg("Failed to resolve checked out commit")
		}
	}

	return tree, nil
}

func (a *Acquirer) discard(dir string) {
	if !a.RemoveOnFailure {
		a.logger.Debug().Str("dir", dir).Msg("Keeping working directory of failed acquisition")
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		a.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to remove working directory")
	}
}
