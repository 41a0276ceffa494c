package feature

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/dta-labs/create-dta/internal/platform"
)

// Status is the outcome kind of applying one feature.
type Status int

const (
	// Applied means the feature tree was copied.
	Applied Status = iota
	// SkippedUnknown means the identifier is not in the registry.
	SkippedUnknown
	// SkippedMissing means the feature's source tree does not exist.
	SkippedMissing
)

func (s Status) String() string {
	switch s {
	case Applied:
		return "applied"
	case SkippedUnknown:
		return "unknown feature"
	case SkippedMissing:
		return "template missing"
	default:
		return "unknown"
	}
}

// DestDir is the directory, relative to the project root, that receives
// feature packages.
const DestDir = "packages"

// excludedNames are never copied out of a feature source tree.
var excludedNames = map[string]bool{
	"node_modules": true,
	".git":         true,
	".DS_Store":    true,
}

// Registry reports whether a feature identifier is recognized.
type Registry interface {
	IsKnown(id string) bool
}

// Result describes what Apply did for one feature.
type Result struct {
	Feature string
	Status  Status
	// Dest is the absolute destination directory.
	Dest string
	// Source names where the feature was looked up, for diagnostics.
	Source string
	// Copied lists destination-relative files written.
	Copied []string
	// Kept lists destination-relative files that already existed and were
	// left untouched.
	Kept []string
}

// Applier copies feature trees from a source filesystem whose top-level
// directories are named after feature identifiers.
type Applier struct {
	registry Registry
	src      fs.FS
	srcName  string
}

// NewApplier returns an Applier reading feature trees from src. srcName is
// used only in diagnostics (typically the directory src was opened from).
func NewApplier(registry Registry, src fs.FS, srcName string) *Applier {
	return &Applier{registry: registry, src: src, srcName: srcName}
}

// NewDirApplier returns an Applier reading feature trees from dir on disk.
func NewDirApplier(registry Registry, dir string) *Applier {
	return NewApplier(registry, os.DirFS(dir), dir)
}

// Apply copies the feature id into <root>/packages/<id>/. Unknown
// identifiers and missing source trees are reported through the result
// status, not as errors, and cause no writes. The returned error is for
// I/O failures during the copy.
func (a *Applier) Apply(root, id string) (Result, error) {
	res := Result{
		Feature: id,
		Dest:    filepath.Join(root, DestDir, id),
		Source:  path.Join(a.srcName, id),
	}

	if !a.registry.IsKnown(id) || !fs.ValidPath(id) {
		res.Status = SkippedUnknown
		return res, nil
	}

	info, err := fs.Stat(a.src, id)
	if err != nil || !info.IsDir() {
		res.Status = SkippedMissing
		return res, nil
	}

	res.Status = Applied
	if err := a.copyTree(id, res.Dest, &res); err != nil {
		return res, fmt.Errorf("copying feature %s: %w", id, err)
	}
	return res, nil
}

// copyTree copies srcDir from the source filesystem into dst, keeping any
// destination file that already exists.
func (a *Applier) copyTree(srcDir, dst string, res *Result) error {
	return fs.WalkDir(a.src, srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != srcDir && excludedNames[d.Name()] {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, _ := filepath.Rel(filepath.FromSlash(srcDir), filepath.FromSlash(p))
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		// Skip symlinks and other special files.
		if !d.Type().IsRegular() {
			return nil
		}

		written, err := a.copyFile(p, target)
		if err != nil {
			return err
		}
		if written {
			res.Copied = append(res.Copied, filepath.ToSlash(rel))
		} else {
			res.Kept = append(res.Kept, filepath.ToSlash(rel))
		}
		return nil
	})
}

// copyFile copies a single file, preserving permissions. It reports false
// without writing when dst already exists.
func (a *Applier) copyFile(src, dst string) (bool, error) {
	data, err := fs.ReadFile(a.src, src)
	if err != nil {
		return false, err
	}

	mode := fs.FileMode(0644)
	if info, err := fs.Stat(a.src, src); err == nil && info.Mode().Perm() != 0 {
		// Embedded sources are read-only; the copy must stay editable.
		mode = info.Mode().Perm() | 0200
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, err
	}
	return true, platform.Chmod(dst, mode)
}
