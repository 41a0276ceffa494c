package fetch

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Locator identifies a directory inside a GitHub repository.
type Locator struct {
	Owner  string
	Repo   string
	Subdir string // slash-separated, empty for the repository root
	Ref    string // branch, tag or commit; empty means the default branch
}

// ParseLocator parses owner/repo[/subpath][#ref]. A "github:" prefix and a
// leading "https://github.com/" are accepted.
func ParseLocator(s string) (Locator, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "github:")
	raw = strings.TrimPrefix(raw, "https://github.com/")

	var loc Locator
	if i := strings.Index(raw, "#"); i >= 0 {
		loc.Ref = raw[i+1:]
		raw = raw[:i]
		if loc.Ref == "" {
			return Locator{}, fmt.Errorf("invalid locator %q: empty ref after '#'", s)
		}
	}

	parts := strings.Split(strings.Trim(raw, "/"), "/")
	if len(parts) < 2 {
		return Locator{}, fmt.Errorf("invalid locator %q: expected owner/repo[/subpath]", s)
	}
	for _, p := range parts {
		if !segmentPattern.MatchString(p) || p == "." || p == ".." {
			return Locator{}, fmt.Errorf("invalid locator %q: bad path segment %q", s, p)
		}
	}

	loc.Owner = parts[0]
	loc.Repo = strings.TrimSuffix(parts[1], ".git")
	if len(parts) > 2 {
		loc.Subdir = path.Join(parts[2:]...)
	}
	return loc, nil
}

// String formats the locator back to owner/repo[/subpath][#ref].
func (l Locator) String() string {
	s := l.Owner + "/" + l.Repo
	if l.Subdir != "" {
		s += "/" + l.Subdir
	}
	if l.Ref != "" {
		s += "#" + l.Ref
	}
	return s
}

// IsGitURL reports whether s is a clone URL rather than a GitHub locator.
func IsGitURL(s string) bool {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "git@"),
		strings.HasPrefix(s, "ssh://"),
		strings.HasPrefix(s, "git://"),
		strings.HasPrefix(s, "file://"):
		return true
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return !strings.HasPrefix(s, "https://github.com/") || strings.HasSuffix(strings.SplitN(s, "#", 2)[0], ".git")
	default:
		return false
	}
}
