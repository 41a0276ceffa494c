package updater

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions orders two release tags. A leading "v" and build
// metadata ("+abc123") are ignored. The result is negative when current
// is older than latest.
func CompareVersions(current, latest string) (int, error) {
	cv, err := parseTag(current)
	if err != nil {
		return 0, fmt.Errorf("parsing current version %q: %w", current, err)
	}
	lv, err := parseTag(latest)
	if err != nil {
		return 0, fmt.Errorf("parsing latest version %q: %w", latest, err)
	}
	return cv.Compare(lv), nil
}

// IsUpdateAvailable reports whether a user running current should be
// offered latest. Local builds such as "dev" are never offered one, and
// a prerelease tag is only offered to someone already on a prerelease.
func IsUpdateAvailable(current, latest string) bool {
	cv, err := parseTag(current)
	if err != nil {
		return false
	}
	lv, err := parseTag(latest)
	if err != nil {
		return false
	}
	if lv.Prerelease() != "" && cv.Prerelease() == "" {
		return false
	}
	return cv.LessThan(lv)
}

func parseTag(tag string) (*semver.Version, error) {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "v")
	v, err := semver.NewVersion(tag)
	if err != nil {
		return nil, err
	}
	if v.Metadata() != "" {
		stripped, err := v.SetMetadata("")
		if err != nil {
			return nil, err
		}
		v = &stripped
	}
	return v, nil
}
