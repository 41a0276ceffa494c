package catalog

import (
	"embed"
	"fmt"
	"os"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Catalog bundles the three static catalogs.
type Catalog struct {
	Versions  *Versions
	Templates *Templates
	Features  *Registry
}

var (
	builtin     *Catalog
	builtinOnce sync.Once
	builtinErr  error
)

// Load returns the embedded catalogs, parsed once per process.
func Load() (*Catalog, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = parseEmbedded()
	})
	return builtin, builtinErr
}

// LoadWithOverlay returns the embedded catalogs with the version catalog
// overlaid by the YAML file at versionsFile. An empty path returns the
// embedded catalogs unchanged.
func LoadWithOverlay(versionsFile string) (*Catalog, error) {
	base, err := Load()
	if err != nil {
		return nil, err
	}
	if versionsFile == "" {
		return base, nil
	}

	data, err := os.ReadFile(versionsFile)
	if err != nil {
		return nil, fmt.Errorf("reading versions overlay: %w", err)
	}
	overlay, err := ParseVersions(data)
	if err != nil {
		return nil, fmt.Errorf("versions overlay %s: %w", versionsFile, err)
	}

	return &Catalog{
		Versions:  base.Versions.Merge(overlay),
		Templates: base.Templates,
		Features:  base.Features,
	}, nil
}

func parseEmbedded() (*Catalog, error) {
	versionsData, err := dataFS.ReadFile("data/versions.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded versions: %w", err)
	}
	versions, err := ParseVersions(versionsData)
	if err != nil {
		return nil, fmt.Errorf("embedded versions: %w", err)
	}

	templatesData, err := dataFS.ReadFile("data/templates.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded templates: %w", err)
	}
	templates, err := ParseTemplates(templatesData)
	if err != nil {
		return nil, fmt.Errorf("embedded templates: %w", err)
	}

	featuresData, err := dataFS.ReadFile("data/features.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded features: %w", err)
	}
	var features []Feature
	if err := yaml.Unmarshal(featuresData, &features); err != nil {
		return nil, fmt.Errorf("parsing embedded features: %w", err)
	}

	return &Catalog{
		Versions:  versions,
		Templates: templates,
		Features:  NewRegistry(features...),
	}, nil
}

// ResolveTemplate looks up a template descriptor by key.
func (c *Catalog) ResolveTemplate(key string) (TemplateDescriptor, bool) {
	return c.Templates.Resolve(key)
}

// ResolveLocator turns a template key or raw locator into a fetch locator.
func (c *Catalog) ResolveLocator(input string) (string, error) {
	return c.Templates.ResolveLocator(input)
}

// IsKnownFeature reports whether id is in the feature registry.
func (c *Catalog) IsKnownFeature(id string) bool {
	return c.Features.IsKnown(id)
}
