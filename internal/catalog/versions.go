package catalog

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// Group names a dependency group inside a package manifest.
type Group string

const (
	GroupDependencies    Group = "dependencies"
	GroupDevDependencies Group = "devDependencies"
)

// Groups lists the patchable dependency groups in manifest order.
var Groups = []Group{GroupDependencies, GroupDevDependencies}

// Versions is the pinned version catalog. It is immutable once built.
type Versions struct {
	deps    map[string]string
	devDeps map[string]string
}

type versionsFile struct {
	Dependencies    map[string]string `yaml:"dependencies"`
	DevDependencies map[string]string `yaml:"devDependencies"`
}

// ParseVersions parses a YAML version catalog and validates every entry.
func ParseVersions(data []byte) (*Versions, error) {
	var f versionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing version catalog: %w", err)
	}
	return NewVersions(f.Dependencies, f.DevDependencies)
}

// NewVersions builds a catalog from the two groups. Each value must be a
// semantic version or a semver range such as "^19.0.0".
func NewVersions(deps, devDeps map[string]string) (*Versions, error) {
	v := &Versions{
		deps:    make(map[string]string, len(deps)),
		devDeps: make(map[string]string, len(devDeps)),
	}
	for name, ver := range deps {
		if err := validateEntry(name, ver); err != nil {
			return nil, fmt.Errorf("%s: %w", GroupDependencies, err)
		}
		v.deps[name] = ver
	}
	for name, ver := range devDeps {
		if err := validateEntry(name, ver); err != nil {
			return nil, fmt.Errorf("%s: %w", GroupDevDependencies, err)
		}
		v.devDeps[name] = ver
	}
	return v, nil
}

func validateEntry(name, version string) error {
	if name == "" {
		return fmt.Errorf("empty package name")
	}
	if _, err := semver.NewConstraint(version); err != nil {
		return fmt.Errorf("package %q: invalid version %q: %w", name, version, err)
	}
	return nil
}

// VersionFor returns the pinned version of name within group. A nil
// catalog pins nothing.
func (v *Versions) VersionFor(group Group, name string) (string, bool) {
	m := v.group(group)
	if m == nil {
		return "", false
	}
	ver, ok := m[name]
	return ver, ok
}

// Lookup returns the pinned version or an empty string.
func (v *Versions) Lookup(group Group, name string) string {
	ver, _ := v.VersionFor(group, name)
	return ver
}

// Names returns the package names of group in lexical order.
func (v *Versions) Names(group Group) []string {
	m := v.group(group)
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the total number of pinned packages across groups.
func (v *Versions) Len() int {
	if v == nil {
		return 0
	}
	return len(v.deps) + len(v.devDeps)
}

// Merge returns a new catalog with overlay entries replacing or extending
// the receiver's entries. Neither input is modified.
func (v *Versions) Merge(overlay *Versions) *Versions {
	if v == nil {
		v = &Versions{}
	}
	out := &Versions{
		deps:    make(map[string]string, len(v.deps)),
		devDeps: make(map[string]string, len(v.devDeps)),
	}
	for k, val := range v.deps {
		out.deps[k] = val
	}
	for k, val := range v.devDeps {
		out.devDeps[k] = val
	}
	if overlay == nil {
		return out
	}
	for k, val := range overlay.deps {
		out.deps[k] = val
	}
	for k, val := range overlay.devDeps {
		out.devDeps[k] = val
	}
	return out
}

func (v *Versions) group(g Group) map[string]string {
	if v == nil {
		return nil
	}
	switch g {
	case GroupDependencies:
		return v.deps
	case GroupDevDependencies:
		return v.devDeps
	default:
		return nil
	}
}

// IsExact reports whether version pins a single release ("5.9.3") rather
// than a range ("^19.2.0").
func IsExact(version string) bool {
	_, err := semver.StrictNewVersion(version)
	return err == nil
}
