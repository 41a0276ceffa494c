package catalog

// Feature describes a pre-authored package that can be layered onto a
// new project.
type Feature struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Registry is the fixed set of recognized feature identifiers.
type Registry struct {
	list  []Feature
	known map[string]bool
}

// NewRegistry builds a registry from features in display order.
func NewRegistry(features ...Feature) *Registry {
	r := &Registry{known: make(map[string]bool, len(features))}
	for _, f := range features {
		if f.ID == "" || r.known[f.ID] {
			continue
		}
		r.known[f.ID] = true
		r.list = append(r.list, f)
	}
	return r
}

// IsKnown reports whether id is a recognized feature.
func (r *Registry) IsKnown(id string) bool {
	return r.known[id]
}

// All returns the features in display order.
func (r *Registry) All() []Feature {
	return append([]Feature(nil), r.list...)
}
