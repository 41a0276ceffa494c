package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dta-labs/create-dta/internal/branding"
	"github.com/dta-labs/create-dta/internal/catalog"
	"github.com/dta-labs/create-dta/internal/compose"
	"github.com/dta-labs/create-dta/internal/config"
	"github.com/dta-labs/create-dta/internal/feature"
	"github.com/dta-labs/create-dta/internal/fetch"
	"github.com/dta-labs/create-dta/internal/install"
	"github.com/dta-labs/create-dta/internal/readme"
	"github.com/dta-labs/create-dta/internal/report"
	"github.com/spf13/cobra"
)

var (
	createFeatures    string
	createBase        string
	createManager     string
	createSkipInstall bool
	createYes         bool
)

// Collaborator factories, replaced in tests.
var (
	newFetcher = func(token string) fetch.Fetcher {
		return fetch.NewAuto(fetch.WithToken(token))
	}
	newInstaller = func(cmd *cobra.Command) install.Installer {
		return &install.Exec{Stdin: cmd.InOrStdin(), Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	}
	isInteractive = func(cmd *cobra.Command) bool {
		f, ok := cmd.InOrStdin().(*os.File)
		if !ok {
			return false
		}
		info, err := f.Stat()
		return err == nil && info.Mode()&os.ModeCharDevice != 0
	}
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&createFeatures, "template", "t", "", "DTA features to add, joined with + (e.g. rbac+feature-flags)")
	f.StringVarP(&createBase, "base", "b", "", "Base Turborepo template key or owner/repo[/path][#ref]")
	f.StringVarP(&createManager, "package-manager", "m", "", "Package manager (npm, yarn, pnpm, bun)")
	f.BoolVar(&createSkipInstall, "skip-install", false, "Skip installing dependencies")
	f.BoolVarP(&createYes, "yes", "y", false, "Never prompt; use defaults for anything not given")
}

func runCreate(cmd *cobra.Command, args []string) error {
	cat, err := catalog.LoadWithOverlay(config.VersionsFile())
	if err != nil {
		return fmt.Errorf("loading catalogs: %w", err)
	}

	rep := report.New(cmd.OutOrStdout())
	rep.Title("🚀 %s", branding.DisplayName())

	var p *prompter
	if !createYes && isInteractive(cmd) {
		p = newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	comp, err := resolveComposition(cat, args, p)
	if err != nil {
		return err
	}
	comp.SkipInstall = createSkipInstall
	printSummary(rep, comp)

	composer := compose.New(compose.Options{
		Fetcher:       newFetcher(config.GitHubToken()),
		Installer:     newInstaller(cmd),
		Features:      featureApplier(cat),
		Versions:      cat.Versions,
		ManifestPaths: config.ManifestPaths(),
		Reporter:      rep,
		CLIVersion:    buildVersion,
	})

	res, err := composer.Compose(cmd.Context(), comp)
	if err != nil {
		var cloneErr *compose.CloneError
		switch {
		case errors.Is(err, compose.ErrDirectoryExists):
			return fmt.Errorf("%w; choose another project name", err)
		case errors.As(err, &cloneErr):
			return fmt.Errorf("could not fetch template %s: %w", cloneErr.Locator, cloneErr.Err)
		case res != nil:
			return fmt.Errorf("%w (partial project left at %s)", err, res.Path)
		}
		return err
	}

	rep.Blank()
	rep.Success("✨ Success!")
	rep.Blank()
	rep.Detail("Next steps:")
	rep.Step("  cd %s", comp.ProjectName)
	if !res.Installed {
		rep.Step("  %s", install.CommandLine(comp.PackageManager))
	}
	rep.Step("  %s dev", comp.PackageManager)
	rep.Blank()
	return nil
}

// featureApplier reads feature sources from the configured directory, or
// from the copies built into the binary.
func featureApplier(cat *catalog.Catalog) *feature.Applier {
	if dir := config.FeaturesDir(); dir != "" {
		return feature.NewDirApplier(cat.Features, dir)
	}
	return feature.NewBuiltinApplier(cat.Features)
}

// resolveComposition turns arguments, flags, config defaults and, when p
// is non-nil, interactive answers into a validated composition.
func resolveComposition(cat *catalog.Catalog, args []string, p *prompter) (compose.Composition, error) {
	var comp compose.Composition

	switch {
	case len(args) > 0:
		comp.ProjectName = args[0]
	case p != nil:
		name, err := p.text("Project name", defaultProjectName, requireNonEmpty)
		if err != nil {
			return comp, err
		}
		comp.ProjectName = name
	}
	if err := validateProjectName(comp.ProjectName); err != nil {
		return comp, err
	}

	base := createBase
	if base == "" && p != nil {
		picked, err := p.template(cat.Templates.All())
		if err != nil {
			return comp, err
		}
		base = picked
	}
	if base == "" {
		base = config.BaseTemplate()
	}
	locator, err := cat.ResolveLocator(base)
	if err != nil {
		return comp, err
	}
	comp.BaseTemplate = locator

	switch {
	case createFeatures != "":
		comp.Features = parseFeatures(createFeatures)
	case p != nil:
		features, err := p.features(cat.Features.All())
		if err != nil {
			return comp, err
		}
		comp.Features = features
	}

	manager := createManager
	if manager == "" {
		manager = config.PackageManager()
	}
	kind, err := install.ParseKind(manager)
	if err != nil {
		return comp, err
	}
	comp.PackageManager = kind

	return comp, nil
}

const defaultProjectName = "my-dta-app"

func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid project name %q: use a plain directory name", name)
	}
	return nil
}

// parseFeatures splits a "+"-joined feature list. Items are trimmed and
// lose a leading "with-". Empty and repeated items are dropped; the first
// occurrence keeps its position.
func parseFeatures(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, item := range strings.Split(s, "+") {
		item = strings.TrimPrefix(strings.TrimSpace(item), "with-")
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func printSummary(rep *report.Reporter, comp compose.Composition) {
	features := readme.BaseOnlyMarker
	if len(comp.Features) > 0 {
		features = strings.Join(comp.Features, ", ")
	}
	rep.Step("📦 Configuration:")
	rep.Table([][2]string{
		{"Name:", comp.ProjectName},
		{"Base:", comp.BaseTemplate},
		{"Manager:", string(comp.PackageManager)},
		{"Features:", features},
	})
	rep.Blank()
}
