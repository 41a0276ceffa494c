package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dta-labs/create-dta/internal/catalog"
	"github.com/dta-labs/create-dta/internal/feature"
	"github.com/dta-labs/create-dta/internal/fetch"
	"github.com/dta-labs/create-dta/internal/install"
	"github.com/dta-labs/create-dta/internal/manifest"
	"github.com/dta-labs/create-dta/internal/metadata"
	"github.com/dta-labs/create-dta/internal/readme"
	"github.com/dta-labs/create-dta/internal/report"
)

// ErrDirectoryExists is returned when the target directory already exists.
var ErrDirectoryExists = errors.New("directory already exists")

// CloneError reports a failed template fetch.
type CloneError struct {
	Locator string
	Path    string
	Err     error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("cloning %s into %s: %v", e.Locator, e.Path, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

// Composition is the input for one run.
type Composition struct {
	ProjectName    string
	BaseTemplate   string // fetch locator
	Features       []string
	PackageManager install.Kind
	SkipInstall    bool
}

// FeatureApplier copies one feature into a project.
type FeatureApplier interface {
	Apply(root, id string) (feature.Result, error)
}

// Options wires the composer's collaborators.
type Options struct {
	Fetcher   fetch.Fetcher
	Installer install.Installer
	Features  FeatureApplier
	Versions  *catalog.Versions

	// ManifestPaths overrides manifest.DefaultPaths when non-empty.
	ManifestPaths []string
	Reporter      *report.Reporter

	// CLIVersion is recorded in the metadata file. Defaults to DevVersion.
	CLIVersion string
	// WorkDir is the directory project names are resolved against.
	// Defaults to the process working directory.
	WorkDir string
	Now     func() time.Time
}

// DevVersion is recorded for builds without version information.
const DevVersion = "dev"

// Composer runs compositions.
type Composer struct {
	opts Options
}

// New returns a Composer. Fetcher, Installer, Features and Versions are
// required.
func New(opts Options) *Composer {
	if opts.Reporter == nil {
		opts.Reporter = report.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CLIVersion == "" {
		opts.CLIVersion = DevVersion
	}
	opts.ManifestPaths = manifest.PathsOrDefault(opts.ManifestPaths)
	return &Composer{opts: opts}
}

// Result summarizes a completed run.
type Result struct {
	// Path is the absolute project directory.
	Path      string
	Manifests []manifest.FileResult
	Features  []feature.Result
	Metadata  *metadata.Record
	// Installed is true when the install step ran and succeeded.
	Installed bool
	// InstallErr holds the install failure, if any. It does not fail the run.
	InstallErr error
	Warnings   []string
}

// ProjectPath resolves name against the composer's working directory.
func (c *Composer) ProjectPath(name string) (string, error) {
	base := c.opts.WorkDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		base = wd
	}
	return filepath.Abs(filepath.Join(base, name))
}

// Compose materializes comp on disk. It fails with ErrDirectoryExists
// before any write when the target exists, and with *CloneError when the
// template cannot be fetched. Later fatal errors leave the partially built
// directory in place.
func (c *Composer) Compose(ctx context.Context, comp Composition) (*Result, error) {
	if comp.ProjectName == "" {
		return nil, fmt.Errorf("project name is required")
	}

	target, err := c.ProjectPath(comp.ProjectName)
	if err != nil {
		return nil, err
	}
	if _, err := os.Lstat(target); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryExists, comp.ProjectName)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking %s: %w", target, err)
	}

	rep := c.opts.Reporter
	res := &Result{Path: target}
	warn := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
		rep.Warn(format, args...)
	}

	// 1. Base template.
	rep.Step("📦 Cloning: %s...", comp.BaseTemplate)
	if err := c.opts.Fetcher.Fetch(ctx, comp.BaseTemplate, target); err != nil {
		return nil, &CloneError{Locator: comp.BaseTemplate, Path: target, Err: err}
	}
	rep.Success("Base cloned")
	rep.Blank()

	// 2. Pinned versions.
	rep.Step("🔄 Updating to pinned versions...")
	res.Manifests = manifest.PatchManifests(target, c.opts.ManifestPaths, c.opts.Versions)
	for _, mr := range res.Manifests {
		if mr.Err != nil {
			warn("Could not patch %s: %v", mr.Path, mr.Err)
			continue
		}
		rep.Item("%s (%d updated)", mr.Path, len(mr.Changes))
	}
	rep.Success("Versions updated")
	rep.Blank()

	// 3. Features, in the order given.
	if len(comp.Features) > 0 {
		rep.Step("📦 Adding features...")
		for _, id := range comp.Features {
			res.Features = append(res.Features, c.applyFeature(target, id, warn))
		}
		rep.Blank()
	}

	// 4. Root manifest identity.
	rootManifest := filepath.Join(target, filepath.FromSlash(manifest.RootPath))
	if err := manifest.SetIdentity(rootManifest, comp.ProjectName, manifest.InitialVersion); err != nil {
		return res, fmt.Errorf("updating root manifest: %w", err)
	}

	// 5. Metadata record.
	features := comp.Features
	if features == nil {
		features = []string{}
	}
	res.Metadata = metadata.New(features, comp.BaseTemplate, c.opts.CLIVersion, c.opts.Now())
	if err := metadata.Write(target, res.Metadata); err != nil {
		return res, fmt.Errorf("writing metadata: %w", err)
	}

	// 6. README.
	if err := readme.Write(target, comp.ProjectName, c.opts.Versions, comp.Features); err != nil {
		return res, fmt.Errorf("writing README: %w", err)
	}

	// 7. Dependencies.
	if !comp.SkipInstall {
		c.runInstall(ctx, comp, res, warn)
	}

	return res, nil
}

func (c *Composer) applyFeature(target, id string, warn func(string, ...any)) feature.Result {
	rep := c.opts.Reporter
	rep.Step("  Adding %s...", rep.Strong(id))

	fr, err := c.opts.Features.Apply(target, id)
	switch {
	case err != nil:
		warn("Feature %s failed: %v", id, err)
	case fr.Status == feature.SkippedUnknown:
		warn("Unknown feature: %s", id)
	case fr.Status == feature.SkippedMissing:
		warn("Template not found: %s", id)
		rep.Detail("    Expected at: %s", fr.Source)
	default:
		rep.Item("Copied to %s/%s/", feature.DestDir, id)
		if len(fr.Kept) > 0 {
			rep.Detail("    Kept %d existing file(s)", len(fr.Kept))
		}
	}
	return fr
}

func (c *Composer) runInstall(ctx context.Context, comp Composition, res *Result, warn func(string, ...any)) {
	rep := c.opts.Reporter
	rep.Step("📦 Installing with %s...", comp.PackageManager)
	rep.Blank()

	if err := c.opts.Installer.Install(ctx, comp.PackageManager, res.Path); err != nil {
		res.InstallErr = err
		warn("Install failed: %v", err)
		rep.Detail("Run: cd %s && %s", comp.ProjectName, install.CommandLine(comp.PackageManager))
		return
	}

	res.Installed = true
	rep.Blank()
	rep.Success("Installed")
}
