package platform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// ErrSymlinkUnsupported is returned when a link can be neither created nor
// replaced by a copy of its target.
var ErrSymlinkUnsupported = errors.New("symlinks not supported")

// goos is swapped in tests to exercise the Windows fallback.
var goos = runtime.GOOS

// Chmod sets permission bits exactly, independent of the process umask.
// It is a no-op on Windows.
func Chmod(path string, mode os.FileMode) error {
	if goos == "windows" {
		return nil
	}
	return os.Chmod(path, mode.Perm())
}

// Symlink creates link pointing at target. A relative target is resolved
// against the link's directory, as the OS does. On Windows, when a native
// link cannot be made, an existing regular target file is copied to link
// instead; anything else yields ErrSymlinkUnsupported.
func Symlink(target, link string) error {
	err := symlink(target, link)
	if err == nil || goos != "windows" {
		return err
	}

	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(link), target)
	}
	info, statErr := os.Stat(resolved)
	if statErr != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s -> %s", ErrSymlinkUnsupported, link, target)
	}
	if err := copyFile(resolved, link, info.Mode().Perm()); err != nil {
		return fmt.Errorf("copying %s in place of link: %w", target, err)
	}
	return nil
}

// symlink is os.Symlink, swapped in tests.
var symlink = os.Symlink

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
