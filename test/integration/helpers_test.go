//go:build integration

package integration_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync/atomic"
	"testing"
)

// testEnv holds the sandboxed directories for one flow.
type testEnv struct {
	WorkDir     string // where projects are created
	FeaturesDir string // feature package sources
	BinDir      string // fake package managers, prepended to PATH
}

// setupTestEnv creates isolated directories and points HOME and PATH at
// them so no real config or package manager is touched.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		WorkDir:     t.TempDir(),
		FeaturesDir: t.TempDir(),
		BinDir:      t.TempDir(),
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", env.BinDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	writeFile(t, filepath.Join(env.FeaturesDir, "rbac", "package.json"), `{"name":"@repo/rbac","version":"0.0.0"}`+"\n")
	writeFile(t, filepath.Join(env.FeaturesDir, "rbac", "src", "index.ts"), "export const roles = [];\n")
	writeFile(t, filepath.Join(env.FeaturesDir, "rbac", "node_modules", "junk.js"), "junk\n")
	writeFile(t, filepath.Join(env.FeaturesDir, "feature-flags", "src", "index.ts"), "export const flags = {};\n")

	return env
}

// fakePackageManager installs an executable named name into BinDir that
// records its arguments in the working directory and exits with code.
func fakePackageManager(t *testing.T, env *testEnv, name string, code int) {
	t.Helper()
	script := "#!/bin/sh\necho \"$0 $@\" > installed.txt\nexit " + strconv.Itoa(code) + "\n"
	path := filepath.Join(env.BinDir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake %s: %v", name, err)
	}
}

// templateArchive returns a codeload-style tarball of a small turborepo
// with the template under examples/basic.
func templateArchive(t *testing.T) []byte {
	t.Helper()
	files := map[string]string{
		"package.json": `{
  "name": "basic",
  "version": "0.0.0",
  "private": true,
  "scripts": {"build": "turbo run build"},
  "devDependencies": {"turbo": "^2.0.0", "prettier": "^3.0.0", "left-pad": "1.3.0"}
}
`,
		"apps/web/package.json": `{
  "name": "web",
  "dependencies": {"next": "14.2.0", "react": "18.3.1", "@repo/ui": "*"},
  "devDependencies": {"typescript": "5.4.5"}
}
`,
		"apps/docs/package.json":     `{"name":"docs","dependencies":{"next":"14.2.0"}}`,
		"packages/ui/package.json":   `{"name":"@repo/ui","devDependencies":{"typescript":"5.4.5"}}`,
		"packages/ui/src/button.tsx": "export const Button = () => null;\n",
		"packages/rbac/src/index.ts": "// shipped by the template\n",
		"packages/rbac/src/extra.ts": "export {};\n",
		"apps/web/app/page.tsx":      "export default function Page() { return null; }\n",
		"turbo.json":                 `{"tasks":{}}`,
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		body := files[name]
		hdr := &tar.Header{
			Name:     "turborepo-0123abc/examples/basic/" + name,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// archiveServer serves archive for vercel/turborepo and counts requests.
func archiveServer(t *testing.T, archive []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/vercel/turborepo/tar.gz/HEAD" {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
