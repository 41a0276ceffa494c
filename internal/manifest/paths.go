package manifest

// DefaultPaths are the manifest locations patched in a Turborepo example
// layout, relative to the project root.
var DefaultPaths = []string{
	"package.json",
	"apps/docs/package.json",
	"apps/web/package.json",
	"packages/ui/package.json",
	"packages/eslint-config/package.json",
	"packages/typescript-config/package.json",
}

// RootPath is the project's root manifest.
const RootPath = "package.json"

// InitialVersion is written to the root manifest of every new project.
const InitialVersion = "0.1.0"

// PathsOrDefault returns paths, or DefaultPaths when paths is empty.
func PathsOrDefault(paths []string) []string {
	if len(paths) == 0 {
		return append([]string(nil), DefaultPaths...)
	}
	return paths
}
