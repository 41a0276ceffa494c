package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		in      string
		want    Locator
		wantErr bool
	}{
		{in: "owner/repo", want: Locator{Owner: "owner", Repo: "repo"}},
		{in: "owner/repo/basic", want: Locator{Owner: "owner", Repo: "repo", Subdir: "basic"}},
		{in: "vercel/turborepo/examples/with-tailwind", want: Locator{Owner: "vercel", Repo: "turborepo", Subdir: "examples/with-tailwind"}},
		{in: "owner/repo/sub#v1.2.0", want: Locator{Owner: "owner", Repo: "repo", Subdir: "sub", Ref: "v1.2.0"}},
		{in: "github:owner/repo.git", want: Locator{Owner: "owner", Repo: "repo"}},
		{in: "https://github.com/owner/repo/", want: Locator{Owner: "owner", Repo: "repo"}},
		{in: "repo", wantErr: true},
		{in: "owner/../etc", wantErr: true},
		{in: "owner/re po", wantErr: true},
		{in: "owner/repo#", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocator(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocatorString(t *testing.T) {
	loc := Locator{Owner: "o", Repo: "r", Subdir: "a/b", Ref: "main"}
	assert.Equal(t, "o/r/a/b#main", loc.String())
}

func TestIsGitURL(t *testing.T) {
	assert.True(t, IsGitURL("git@github.com:owner/repo.git"))
	assert.True(t, IsGitURL("https://gitlab.com/owner/repo.git"))
	assert.True(t, IsGitURL("https://github.com/owner/repo.git"))
	assert.True(t, IsGitURL("file:///tmp/repo"))
	assert.False(t, IsGitURL("https://github.com/owner/repo"))
	assert.False(t, IsGitURL("owner/repo/sub"))
}

type tarEntry struct {
	name string
	body string
	dir  bool
	mode int64
	link string
}

func makeTarGz(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "pax_global_header", Typeflag: tar.TypeXGlobalHeader}))
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644}
		if e.mode != 0 {
			hdr.Mode = e.mode
		}
		switch {
		case e.link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.link
		case e.dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir && e.link == "" {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func turborepoArchive(t *testing.T) []byte {
	return makeTarGz(t, []tarEntry{
		{name: "turborepo-abc123/", dir: true},
		{name: "turborepo-abc123/README.md", body: "# turborepo"},
		{name: "turborepo-abc123/examples/", dir: true},
		{name: "turborepo-abc123/examples/basic/", dir: true},
		{name: "turborepo-abc123/examples/basic/package.json", body: `{"name":"basic"}`},
		{name: "turborepo-abc123/examples/basic/apps/web/package.json", body: `{"name":"web"}`},
		{name: "turborepo-abc123/examples/basic/turbo.sh", body: "#!/bin/sh", mode: 0755},
		{name: "turborepo-abc123/examples/basic-extra/package.json", body: `{"name":"other"}`},
	})
}

func newArchiveServer(t *testing.T, archive []byte, gotPath *string, gotAuth *string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			*gotPath = r.URL.Path
		}
		if gotAuth != nil {
			*gotAuth = r.Header.Get("Authorization")
		}
		if r.URL.Path == "/missing/repo/tar.gz/HEAD" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/x-gzip")
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTarballFetchExtractsSubdir(t *testing.T) {
	var gotPath, gotAuth string
	srv := newArchiveServer(t, turborepoArchive(t), &gotPath, &gotAuth)
	f := NewTarball(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithToken("secret"))

	dest := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, f.Fetch(context.Background(), "vercel/turborepo/examples/basic", dest))

	assert.Equal(t, "/vercel/turborepo/tar.gz/HEAD", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)

	data, err := os.ReadFile(filepath.Join(dest, "package.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"basic"}`, string(data))
	_, err = os.Stat(filepath.Join(dest, "apps", "web", "package.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "README.md"))
	assert.True(t, os.IsNotExist(err), "files outside the subdirectory are not extracted")

	info, err := os.Stat(filepath.Join(dest, "turbo.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestTarballFetchWholeRepoWithRef(t *testing.T) {
	var gotPath string
	srv := newArchiveServer(t, turborepoArchive(t), &gotPath, nil)
	f := NewTarball(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	dest := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, f.Fetch(context.Background(), "vercel/turborepo#v2.0.0", dest))

	assert.Equal(t, "/vercel/turborepo/tar.gz/v2.0.0", gotPath)
	_, err := os.Stat(filepath.Join(dest, "examples", "basic-extra", "package.json"))
	assert.NoError(t, err)
}

func TestTarballFetchFailuresLeaveNoDirectory(t *testing.T) {
	srv := newArchiveServer(t, turborepoArchive(t), nil, nil)
	f := NewTarball(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	tests := []struct {
		name    string
		locator string
	}{
		{"not found", "missing/repo"},
		{"missing subdir", "vercel/turborepo/examples/nope"},
		{"invalid locator", "not-a-locator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			dest := filepath.Join(parent, "demo")

			err := f.Fetch(context.Background(), tt.locator, dest)
			require.Error(t, err)

			entries, readErr := os.ReadDir(parent)
			require.NoError(t, readErr)
			assert.Empty(t, entries, "no destination or staging directory left behind")
		})
	}
}

func TestTarballFetchRejectsExistingDestination(t *testing.T) {
	srv := newArchiveServer(t, turborepoArchive(t), nil, nil)
	f := NewTarball(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	dest := t.TempDir()
	err := f.Fetch(context.Background(), "vercel/turborepo", dest)
	assert.Error(t, err)
}

func TestExtractRejectsTraversal(t *testing.T) {
	archive := makeTarGz(t, []tarEntry{
		{name: "repo-sha/../../evil.txt", body: "x"},
	})
	dest := t.TempDir()

	_, err := extractTarGz(bytes.NewReader(archive), dest, "")
	assert.Error(t, err)
}

func TestExtractRejectsWritesThroughLinkChain(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory symlinks are not extracted on windows")
	}
	archive := makeTarGz(t, []tarEntry{
		{name: "repo-sha/a/", dir: true},
		{name: "repo-sha/a/b", link: ".."},
		{name: "repo-sha/a/b/c", link: ".."},
		{name: "repo-sha/a/b/c/escaped.txt", body: "x"},
	})
	parent := t.TempDir()
	dest := filepath.Join(parent, "dest")
	require.NoError(t, os.Mkdir(dest, 0o755))

	_, err := extractTarGz(bytes.NewReader(archive), dest, "")
	assert.ErrorContains(t, err, "passes through a symlink")
	assert.NoFileExists(t, filepath.Join(parent, "escaped.txt"))
	assert.NoFileExists(t, filepath.Join(dest, "escaped.txt"))
}

func TestExtractKeepsInTreeSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need developer mode on windows")
	}
	archive := makeTarGz(t, []tarEntry{
		{name: "repo-sha/docs/readme.md", body: "# docs"},
		{name: "repo-sha/README.md", link: "docs/readme.md"},
	})
	dest := t.TempDir()

	_, err := extractTarGz(bytes.NewReader(archive), dest, "")
	require.NoError(t, err)
	target, err := os.Readlink(filepath.Join(dest, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "docs/readme.md", target)
}

func TestParseGitURL(t *testing.T) {
	url, sub, ref := ParseGitURL("https://example.com/acme/starter.git/apps/web#v2")
	assert.Equal(t, "https://example.com/acme/starter.git", url)
	assert.Equal(t, "apps/web", sub)
	assert.Equal(t, "v2", ref)

	url, sub, ref = ParseGitURL("git@github.com:acme/starter.git")
	assert.Equal(t, "git@github.com:acme/starter.git", url)
	assert.Empty(t, sub)
	assert.Empty(t, ref)
}

func fakeClone(files map[string]string) func(context.Context, billy.Filesystem, *git.CloneOptions) error {
	return func(_ context.Context, fs billy.Filesystem, _ *git.CloneOptions) error {
		for name, body := range files {
			if err := util.WriteFile(fs, name, []byte(body), 0644); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestGitFetchCopiesSubdir(t *testing.T) {
	var gotOpts *git.CloneOptions
	clone := fakeClone(map[string]string{
		"README.md":              "# starter",
		"apps/web/package.json":  `{"name":"web"}`,
		"apps/web/src/page.tsx":  "export default function Page() {}",
		"apps/docs/package.json": `{"name":"docs"}`,
	})
	g := &Git{clone: func(ctx context.Context, fs billy.Filesystem, opts *git.CloneOptions) error {
		gotOpts = opts
		return clone(ctx, fs, opts)
	}}

	dest := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, g.Fetch(context.Background(), "https://example.com/acme/starter.git/apps/web#main", dest))

	require.NotNil(t, gotOpts)
	assert.Equal(t, "https://example.com/acme/starter.git", gotOpts.URL)
	assert.Equal(t, 1, gotOpts.Depth)
	assert.Equal(t, "refs/heads/main", gotOpts.ReferenceName.String())

	_, err := os.Stat(filepath.Join(dest, "package.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "src", "page.tsx"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "README.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestGitFetchFallsBackToTag(t *testing.T) {
	var tried []string
	clone := fakeClone(map[string]string{"package.json": `{"name":"starter"}`})
	g := &Git{clone: func(ctx context.Context, fs billy.Filesystem, opts *git.CloneOptions) error {
		tried = append(tried, opts.ReferenceName.String())
		if opts.ReferenceName.IsBranch() {
			return plumbing.ErrReferenceNotFound
		}
		return clone(ctx, fs, opts)
	}}

	dest := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, g.Fetch(context.Background(), "https://example.com/acme/starter.git#v2", dest))
	assert.Equal(t, []string{"refs/heads/v2", "refs/tags/v2"}, tried)
	assert.FileExists(t, filepath.Join(dest, "package.json"))
}

func TestGitFetchFullRefIsNotRetried(t *testing.T) {
	calls := 0
	g := &Git{clone: func(context.Context, billy.Filesystem, *git.CloneOptions) error {
		calls++
		return plumbing.ErrReferenceNotFound
	}}

	err := g.Fetch(context.Background(), "https://example.com/acme/starter.git#refs/heads/gone", filepath.Join(t.TempDir(), "demo"))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGitFetchCloneFailure(t *testing.T) {
	g := &Git{clone: func(context.Context, billy.Filesystem, *git.CloneOptions) error {
		return errors.New("authentication required")
	}}
	parent := t.TempDir()

	err := g.Fetch(context.Background(), "https://example.com/private.git", filepath.Join(parent, "demo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication required")

	entries, _ := os.ReadDir(parent)
	assert.Empty(t, entries)
}

func TestAutoDispatch(t *testing.T) {
	var used string
	a := &Auto{
		Tarball: Func(func(context.Context, string, string) error { used = "tarball"; return nil }),
		Git:     Func(func(context.Context, string, string) error { used = "git"; return nil }),
	}

	require.NoError(t, a.Fetch(context.Background(), "owner/repo/sub", "x"))
	assert.Equal(t, "tarball", used)
	require.NoError(t, a.Fetch(context.Background(), "git@github.com:owner/repo.git", "x"))
	assert.Equal(t, "git", used)
}
