package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dta-labs/create-dta/internal/branding"
)

const cacheFileName = "version-check.json"

// DefaultCacheMaxAge is how long a cached check is trusted.
const DefaultCacheMaxAge = 24 * time.Hour

// Cache is the persisted result of the last release check.
type Cache struct {
	LatestVersion   string    `json:"latest_version"`
	CurrentVersion  string    `json:"current_version"`
	URL             string    `json:"url,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
	UpdateAvailable bool      `json:"update_available"`
}

// LoadCache reads the cache from dir. A missing file yields nil, nil.
func LoadCache(dir string) (*Cache, error) {
	data, err := os.ReadFile(filepath.Join(dir, cacheFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading version cache: %w", err)
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing version cache: %w", err)
	}
	return &c, nil
}

// SaveCache writes c to dir, creating dir if needed.
func SaveCache(dir string, c *Cache) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling version cache: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, cacheFileName), data, 0o644); err != nil {
		return fmt.Errorf("writing version cache: %w", err)
	}
	return nil
}

// IsStale reports whether c is nil or older than maxAge at now.
func (c *Cache) IsStale(maxAge time.Duration, now time.Time) bool {
	if c == nil {
		return true
	}
	return now.Sub(c.CheckedAt) > maxAge
}

// Refresh runs a check and stores the result in dir.
func (u *Checker) Refresh(ctx context.Context, dir string) (*Cache, error) {
	st, err := u.Check(ctx)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		LatestVersion:   st.Latest,
		CurrentVersion:  st.Current,
		URL:             st.URL,
		CheckedAt:       u.now(),
		UpdateAvailable: st.Available,
	}
	if err := SaveCache(dir, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Banner prints an update notice from the cached check in dir. It never
// waits on the network: a stale cache is refreshed in the background for
// the next run and the returned channel closes when that refresh ends.
func (u *Checker) Banner(w io.Writer, dir string) <-chan struct{} {
	done := make(chan struct{})

	c, err := LoadCache(dir)
	if err != nil {
		close(done)
		return done
	}
	// A cache written by another build says nothing about this one.
	if c != nil && c.CurrentVersion == u.current && c.UpdateAvailable {
		PrintBanner(w, c.CurrentVersion, c.LatestVersion, c.URL)
	}

	if !c.IsStale(DefaultCacheMaxAge, u.now()) && c.CurrentVersion == u.current {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = u.Refresh(ctx, dir)
	}()
	return done
}

// PrintBanner writes the update notice to w.
func PrintBanner(w io.Writer, current, latest, url string) {
	fmt.Fprintf(w, "\nUpdate available: %s -> %s\n", current, latest)
	if url == "" {
		url = "https://github.com/" + branding.GitHubRepo() + "/releases/latest"
	}
	fmt.Fprintf(w, "    Download it from %s\n\n", url)
}
