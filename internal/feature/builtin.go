package feature

import (
	"embed"
	"io/fs"
)

//go:embed templates
var builtinFS embed.FS

// BuiltinName labels the embedded sources in diagnostics.
const BuiltinName = "builtin:templates"

// Builtin returns the feature sources compiled into the binary, one
// top-level directory per feature identifier.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtinFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewBuiltinApplier returns an Applier over the embedded sources.
func NewBuiltinApplier(registry Registry) *Applier {
	return NewApplier(registry, Builtin(), BuiltinName)
}
