// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package; Go's //go:embed bakes it
// into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	HomeDir      string `yaml:"home_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	GoModule     string `yaml:"go_module"`
	GitHubRepo   string `yaml:"github_repo"`
	MetadataFile string `yaml:"metadata_file"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:      "create-dta",
			DisplayName:  "Create DTA App",
			Description:  "Scaffold a Turborepo monorepo with DTA features",
			HomeDir:      ".create-dta",
			EnvPrefix:    "CREATE_DTA",
			GoModule:     "github.com/dta-labs/create-dta",
			GitHubRepo:   "dta-labs/create-dta",
			MetadataFile: ".dta.json",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "create-dta").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".create-dta").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "CREATE_DTA").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" string of the CLI itself.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// MetadataFile returns the name of the project metadata record written at
// the root of every generated project (e.g., ".dta.json").
func MetadataFile() string { load(); return defaults.MetadataFile }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "CREATE_DTA_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
