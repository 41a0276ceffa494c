// Package readme renders the README written at the root of a generated
// project.
package readme

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/dta-labs/create-dta/internal/branding"
	"github.com/dta-labs/create-dta/internal/catalog"
)

// FileName is the README's name at the project root.
const FileName = "README.md"

// BaseOnlyMarker appears in READMEs of projects created without features.
const BaseOnlyMarker = "none (base only)"

//go:embed README.md.tmpl
var readmeTemplate string

var tmpl = template.Must(template.New("README.md").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
	"join":  strings.Join,
}).Parse(readmeTemplate))

type data struct {
	Name       string
	CLIName    string
	Repo       string
	Next       string
	React      string
	TypeScript string
	Tailwind   string
	Features   []string
}

// Render returns the README for a project. It has no side effects and the
// output depends only on its arguments.
func Render(projectName string, versions *catalog.Versions, features []string) string {
	d := data{
		Name:       projectName,
		CLIName:    branding.CLIName(),
		Repo:       branding.GitHubRepo(),
		Next:       versions.Lookup(catalog.GroupDependencies, "next"),
		React:      versions.Lookup(catalog.GroupDependencies, "react"),
		TypeScript: versions.Lookup(catalog.GroupDevDependencies, "typescript"),
		Tailwind:   versions.Lookup(catalog.GroupDevDependencies, "tailwindcss"),
		Features:   features,
	}

	var buf bytes.Buffer
	// The template is parsed at init and only reads plain fields, so
	// Execute cannot fail here.
	_ = tmpl.Execute(&buf, d)
	return buf.String()
}

// Write renders the README and writes it to dir, replacing any README the
// template shipped with.
func Write(dir, projectName string, versions *catalog.Versions, features []string) error {
	return os.WriteFile(filepath.Join(dir, FileName), []byte(Render(projectName, versions, features)), 0644)
}
