// Package catalog holds the static configuration consumed by project
// composition: the pinned version catalog, the base template catalog, and
// the registry of feature packages. All three are embedded YAML, parsed once
// and exposed read-only.
package catalog
