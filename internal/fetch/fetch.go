package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dta-labs/create-dta/internal/platform"
)

// Fetcher materializes the template at locator into dest. dest must not
// exist; on success it is a directory holding the template tree.
type Fetcher interface {
	Fetch(ctx context.Context, locator, dest string) error
}

// Func adapts a function to the Fetcher interface.
type Func func(ctx context.Context, locator, dest string) error

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, locator, dest string) error {
	return f(ctx, locator, dest)
}

// Auto routes git URLs to Git and everything else to Tarball.
type Auto struct {
	Tarball Fetcher
	Git     Fetcher
}

// NewAuto returns an Auto using the default tarball and git fetchers.
func NewAuto(opts ...Option) *Auto {
	return &Auto{Tarball: NewTarball(opts...), Git: NewGit()}
}

// Fetch dispatches on the locator's shape.
func (a *Auto) Fetch(ctx context.Context, locator, dest string) error {
	if IsGitURL(locator) {
		return a.Git.Fetch(ctx, locator, dest)
	}
	return a.Tarball.Fetch(ctx, locator, dest)
}

// stage creates a temporary directory next to dest, runs fill on it and
// renames it to dest on success. The temporary directory is removed on
// failure.
func stage(dest string, fill func(dir string) error) error {
	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("destination %s already exists", dest)
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+"-fetch-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}

	if err := fill(tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	if err := platform.Chmod(tmp, 0755); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("setting permissions on %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("moving template into %s: %w", dest, err)
	}
	return nil
}

// safeJoin joins rel onto root and rejects results that escape root.
func safeJoin(root, rel string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, target)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", rel)
	}
	return target, nil
}
