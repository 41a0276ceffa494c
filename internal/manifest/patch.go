package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dta-labs/create-dta/internal/catalog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

var prettyOptions = &pretty.Options{Indent: "  "}

// Change records one rewritten dependency entry.
type Change struct {
	Group catalog.Group
	Name  string
	From  string
	To    string
}

// FileResult is the outcome of patching one manifest.
type FileResult struct {
	// Path is relative to the project root.
	Path    string
	Changes []Change
	Err     error
}

// PatchManifests patches every manifest in paths under root, in order.
// Paths that do not exist are skipped without a result. A failure on one
// file is recorded in its result and does not stop the others.
func PatchManifests(root string, paths []string, versions *catalog.Versions) []FileResult {
	var results []FileResult
	for _, rel := range paths {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(full); err != nil {
			continue
		}
		changes, err := PatchFile(full, versions)
		results = append(results, FileResult{Path: rel, Changes: changes, Err: err})
	}
	return results
}

// PatchFile patches the manifest at path in place. A missing file is not an
// error and is never created. The file is only rewritten when at least one
// entry changed.
func PatchFile(path string, versions *catalog.Versions) ([]Change, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	out, changes, err := Patch(data, versions)
	if err != nil {
		return nil, fmt.Errorf("patching %s: %w", path, err)
	}
	if len(changes) == 0 {
		return nil, nil
	}

	if err := writeFile(path, out); err != nil {
		return nil, err
	}
	return changes, nil
}

// Patch rewrites the dependencies and devDependencies entries of a
// manifest document whose names are pinned in versions. Entries not in the
// catalog, every other key, and key order are preserved. Groups that are
// absent are not created. The returned document is indented with two
// spaces.
func Patch(data []byte, versions *catalog.Versions) ([]byte, []Change, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, nil, fmt.Errorf("manifest is not a JSON object")
	}

	out := data
	var changes []Change
	for _, group := range catalog.Groups {
		deps := doc.Get(string(group))
		if !deps.IsObject() {
			continue
		}

		var setErr error
		deps.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			pinned, ok := versions.VersionFor(group, name)
			if !ok {
				return true
			}
			if value.Type == gjson.String && value.String() == pinned {
				return true
			}

			out, setErr = sjson.SetBytes(out, string(group)+"."+gjson.Escape(name), pinned)
			if setErr != nil {
				setErr = fmt.Errorf("setting %s.%s: %w", group, name, setErr)
				return false
			}
			changes = append(changes, Change{Group: group, Name: name, From: value.String(), To: pinned})
			return true
		})
		if setErr != nil {
			return nil, nil, setErr
		}
	}

	return pretty.PrettyOptions(out, prettyOptions), changes, nil
}

// SetIdentity sets the name and version fields of the manifest at path.
// Unlike PatchFile, a missing manifest is an error.
func SetIdentity(path, name, version string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return fmt.Errorf("%s is not a JSON object", path)
	}

	out, err := sjson.SetBytes(data, "name", name)
	if err != nil {
		return fmt.Errorf("setting name in %s: %w", path, err)
	}
	out, err = sjson.SetBytes(out, "version", version)
	if err != nil {
		return fmt.Errorf("setting version in %s: %w", path, err)
	}

	return writeFile(path, pretty.PrettyOptions(out, prettyOptions))
}

// writeFile replaces path through a sibling temp file so a failed write
// never leaves a truncated manifest behind.
func writeFile(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
