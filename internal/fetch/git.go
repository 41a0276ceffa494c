package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Git shallow-clones arbitrary git URLs into memory and copies the
// requested subdirectory out.
type Git struct {
	clone func(ctx context.Context, fs billy.Filesystem, opts *git.CloneOptions) error
}

// NewGit creates a git fetcher.
func NewGit() *Git {
	return &Git{clone: func(ctx context.Context, fs billy.Filesystem, opts *git.CloneOptions) error {
		_, err := git.CloneContext(ctx, memory.NewStorage(), fs, opts)
		return err
	}}
}

// ParseGitURL splits "<url>[/subdir][#ref]" where the subdirectory
// follows the repository path's ".git". For example
// "https://example.com/acme/starter.git/apps/web#v2". The ref may be a
// branch, a tag or a full "refs/..." name.
func ParseGitURL(s string) (url, subdir, ref string) {
	url = strings.TrimSpace(s)
	if i := strings.LastIndex(url, "#"); i >= 0 {
		ref = url[i+1:]
		url = url[:i]
	}
	if i := strings.Index(url, ".git/"); i >= 0 {
		subdir = strings.Trim(url[i+len(".git/"):], "/")
		url = url[:i+len(".git")]
	}
	return url, subdir, ref
}

// Fetch clones locator and copies its tree (or subdirectory) into dest.
func (g *Git) Fetch(ctx context.Context, locator, dest string) error {
	url, subdir, ref := ParseGitURL(locator)

	opts := &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	}
	shortRef := ref != "" && !strings.HasPrefix(ref, "refs/")
	switch {
	case shortRef:
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
	case ref != "":
		opts.ReferenceName = plumbing.ReferenceName(ref)
	}

	mem := memfs.New()
	err := g.clone(ctx, mem, opts)
	if err != nil && shortRef && isMissingRef(err) {
		// A short ref names a branch or a tag.
		mem = memfs.New()
		opts.ReferenceName = plumbing.NewTagReferenceName(ref)
		err = g.clone(ctx, mem, opts)
	}
	if err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}

	root := "."
	if subdir != "" {
		root = subdir
		info, err := mem.Stat(root)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("subdirectory %q not found in %s", subdir, url)
		}
	}

	return stage(dest, func(dir string) error {
		return copyBilly(mem, root, dir)
	})
}

func isMissingRef(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.Is(err, plumbing.ErrReferenceNotFound) || errors.As(err, &noMatch)
}

// copyBilly copies the directory dir inside fs into dest on disk.
func copyBilly(fs billy.Filesystem, dir, dest string) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, info := range entries {
		name := info.Name()
		// memfs lists its root as a child of itself.
		if name == "." || name == ".." || name == ".git" {
			continue
		}

		src := fs.Join(dir, name)
		target := filepath.Join(dest, name)

		switch {
		case info.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			if err := copyBilly(fs, src, target); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if err := copyBillyFile(fs, src, target, info.Mode().Perm()); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyBillyFile(fs billy.Filesystem, src, target string, mode os.FileMode) error {
	f, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeEntry(f, target, mode)
}
