package catalog

import (
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// CustomKey is the template key whose locator is supplied by the caller.
const CustomKey = "custom"

// TemplateDescriptor describes one base template.
type TemplateDescriptor struct {
	Key          string `yaml:"key"`
	DisplayName  string `yaml:"name"`
	Description  string `yaml:"description"`
	FetchLocator string `yaml:"locator"`
}

// IsCustom reports whether the descriptor expects a caller-supplied locator.
func (d TemplateDescriptor) IsCustom() bool {
	return d.FetchLocator == ""
}

// Templates is the ordered template catalog.
type Templates struct {
	list  []TemplateDescriptor
	index map[string]int
}

// ParseTemplates parses a YAML list of descriptors. Keys must be unique and
// only the custom entry may omit its locator.
func ParseTemplates(data []byte) (*Templates, error) {
	var list []TemplateDescriptor
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing template catalog: %w", err)
	}
	return NewTemplates(list...)
}

// NewTemplates builds a catalog from descriptors in display order.
func NewTemplates(list ...TemplateDescriptor) (*Templates, error) {
	t := &Templates{index: make(map[string]int, len(list))}
	for _, d := range list {
		if d.Key == "" {
			return nil, fmt.Errorf("template with empty key")
		}
		if _, dup := t.index[d.Key]; dup {
			return nil, fmt.Errorf("duplicate template key %q", d.Key)
		}
		if d.FetchLocator == "" && d.Key != CustomKey {
			return nil, fmt.Errorf("template %q has no locator", d.Key)
		}
		t.index[d.Key] = len(t.list)
		t.list = append(t.list, d)
	}
	return t, nil
}

// All returns the descriptors in display order.
func (t *Templates) All() []TemplateDescriptor {
	return append([]TemplateDescriptor(nil), t.list...)
}

// Resolve looks up a descriptor by key.
func (t *Templates) Resolve(key string) (TemplateDescriptor, bool) {
	i, ok := t.index[key]
	if !ok {
		return TemplateDescriptor{}, false
	}
	return t.list[i], true
}

// ResolveLocator maps input to a fetch locator. A catalog key with a
// locator resolves to that locator; anything else that is not a catalog
// key is taken as a raw owner/repo[/subpath] locator. The custom key alone
// is rejected because its locator must come from the caller.
func (t *Templates) ResolveLocator(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty template reference")
	}
	if d, ok := t.Resolve(input); ok {
		if d.IsCustom() {
			return "", fmt.Errorf("template %q requires a repository locator (owner/repo/path)", d.Key)
		}
		return d.FetchLocator, nil
	}
	if !strings.Contains(input, "/") {
		return "", fmt.Errorf("unknown template %q: use a catalog key or owner/repo[/path]", input)
	}
	return input, nil
}
