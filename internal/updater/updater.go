package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dta-labs/create-dta/internal/branding"
)

// DefaultAPIBase is the GitHub REST endpoint.
const DefaultAPIBase = "https://api.github.com"

// Release is the part of a GitHub release the checker reads.
type Release struct {
	TagName   string    `json:"tag_name"`
	HTMLURL   string    `json:"html_url"`
	Published time.Time `json:"published_at"`
}

// Status is the outcome of comparing the running build with the latest
// release.
type Status struct {
	Current   string
	Latest    string
	URL       string
	Available bool
}

// Checker looks up the newest published release.
type Checker struct {
	current    string
	httpClient *http.Client
	apiBase    string
	repo       string
	token      string
	now        func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Checker) { u.httpClient = c }
}

// WithAPIBase points the checker at a different API host.
func WithAPIBase(base string) Option {
	return func(u *Checker) { u.apiBase = strings.TrimRight(base, "/") }
}

// WithToken sends token as Authorization for higher rate limits.
func WithToken(token string) Option {
	return func(u *Checker) { u.token = token }
}

// WithRepo overrides the owner/repo whose releases are read.
func WithRepo(repo string) Option {
	return func(u *Checker) { u.repo = repo }
}

// New returns a Checker for the running version.
func New(currentVersion string, opts ...Option) *Checker {
	u := &Checker{
		current:    currentVersion,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBase:    DefaultAPIBase,
		repo:       branding.GitHubRepo(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CurrentVersion returns the version the checker compares against.
func (u *Checker) CurrentVersion() string {
	return u.current
}

// Latest fetches the latest published release.
func (u *Checker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", u.apiBase, u.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", branding.CLIName()+"-updater")
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("no published release for %s", u.repo)
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, fmt.Errorf("GitHub API rate limit exceeded; set GITHUB_TOKEN for higher limits")
	default:
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("parsing release JSON: %w", err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release has no tag")
	}
	return &release, nil
}

// Check compares the running version with the latest release.
func (u *Checker) Check(ctx context.Context) (*Status, error) {
	release, err := u.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Current:   u.current,
		Latest:    release.TagName,
		URL:       release.HTMLURL,
		Available: IsUpdateAvailable(u.current, release.TagName),
	}, nil
}
