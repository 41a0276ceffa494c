package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dta-labs/create-dta/internal/platform"
)

// DefaultCodeloadURL serves GitHub repository tarballs.
const DefaultCodeloadURL = "https://codeload.github.com"

// Tarball fetches GitHub repositories as tar.gz archives and extracts the
// requested subdirectory.
type Tarball struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// Option configures a Tarball fetcher.
type Option func(*Tarball)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(t *Tarball) {
		t.httpClient = c
	}
}

// WithBaseURL points the fetcher at a different codeload host.
func WithBaseURL(u string) Option {
	return func(t *Tarball) {
		t.baseURL = strings.TrimRight(u, "/")
	}
}

// WithToken sends a GitHub token for private repositories and higher
// rate limits.
func WithToken(token string) Option {
	return func(t *Tarball) {
		t.token = token
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(t *Tarball) {
		t.userAgent = ua
	}
}

// NewTarball creates a tarball fetcher.
func NewTarball(opts ...Option) *Tarball {
	t := &Tarball{
		httpClient: http.DefaultClient,
		baseURL:    DefaultCodeloadURL,
		userAgent:  "create-dta",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ArchiveURL returns the tarball URL for loc.
func (t *Tarball) ArchiveURL(loc Locator) string {
	ref := loc.Ref
	if ref == "" {
		ref = "HEAD"
	}
	return fmt.Sprintf("%s/%s/%s/tar.gz/%s", t.baseURL, loc.Owner, loc.Repo, ref)
}

// Fetch downloads the archive for locator and extracts it into dest.
func (t *Tarball) Fetch(ctx context.Context, locator, dest string) error {
	loc, err := ParseLocator(locator)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.ArchiveURL(loc), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", loc, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("repository %s/%s or ref not found", loc.Owner, loc.Repo)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("GitHub refused the download (status %d). Set GITHUB_TOKEN for higher limits", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	return stage(dest, func(dir string) error {
		n, err := extractTarGz(resp.Body, dir, loc.Subdir)
		if err != nil {
			return err
		}
		if n == 0 {
			if loc.Subdir != "" {
				return fmt.Errorf("subdirectory %q not found in %s/%s", loc.Subdir, loc.Owner, loc.Repo)
			}
			return fmt.Errorf("archive for %s is empty", loc)
		}
		return nil
	})
}

// extractTarGz extracts entries below subdir into dest, stripping the
// archive's top-level directory and subdir itself. It returns the number of
// entries written.
func extractTarGz(r io.Reader, dest, subdir string) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gz.Close()

	prefix := ""
	if subdir != "" {
		prefix = strings.Trim(subdir, "/") + "/"
	}

	written := 0
	links := map[string]bool{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("reading tar entry: %w", err)
		}

		name := path.Clean(strings.TrimPrefix(hdr.Name, "./"))
		if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") || strings.Contains(hdr.Name, "/../") {
			return written, fmt.Errorf("archive entry %q escapes destination", hdr.Name)
		}
		// Drop the <repo>-<sha>/ wrapper directory.
		i := strings.Index(name, "/")
		if i < 0 {
			continue
		}
		name = name[i+1:]

		if prefix != "" {
			if !strings.HasPrefix(name+"/", prefix) {
				continue
			}
			name = strings.TrimPrefix(strings.TrimPrefix(name+"/", prefix), "/")
			name = strings.TrimSuffix(name, "/")
		}
		if name == "" || name == "." {
			continue
		}

		target, err := safeJoin(dest, name)
		if err != nil {
			return written, err
		}
		if hdr.Typeflag != tar.TypeSymlink && throughLink(links, name) {
			return written, fmt.Errorf("archive entry %q passes through a symlink", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return written, fmt.Errorf("creating %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return written, fmt.Errorf("extracting %s: %w", name, err)
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				continue
			}
			resolved := path.Join(path.Dir(name), hdr.Linkname)
			if _, err := safeJoin(dest, resolved); err != nil {
				continue
			}
			if throughLink(links, name) || throughLink(links, resolved) {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return written, err
			}
			if err := platform.Symlink(hdr.Linkname, target); err != nil {
				if errors.Is(err, platform.ErrSymlinkUnsupported) {
					continue
				}
				return written, fmt.Errorf("linking %s: %w", name, err)
			}
			links[name] = true
		default:
			// Global pax headers and special files are skipped.
			continue
		}
		written++
	}
	return written, nil
}

// throughLink reports whether name, or a directory above it, is a symlink
// extracted earlier from the same archive. Lexical checks cannot see where
// such a link points once it exists on disk.
func throughLink(links map[string]bool, name string) bool {
	for p := name; p != "." && p != "/" && p != ""; p = path.Dir(p) {
		if links[p] {
			return true
		}
	}
	return false
}

func writeEntry(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return platform.Chmod(target, mode)
}
