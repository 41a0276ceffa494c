package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dta-labs/create-dta/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Recognized configuration keys.
const (
	KeyFeaturesDir    = "features_dir"
	KeyManifestPaths  = "manifest_paths"
	KeyVersionsFile   = "versions_file"
	KeyGitHubToken    = "github_token"
	KeyPackageManager = "package_manager"
	KeyBaseTemplate   = "base_template"
	KeyNoUpdateCheck  = "no_update_check"
)

// Keys lists every configuration key in display order.
var Keys = []string{
	KeyFeaturesDir,
	KeyManifestPaths,
	KeyVersionsFile,
	KeyGitHubToken,
	KeyPackageManager,
	KeyBaseTemplate,
	KeyNoUpdateCheck,
}

// Dir returns the path to the config directory (~/.create-dta/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.create-dta/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
// A missing config file is not an error.
func Load() error {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyPackageManager, "pnpm")
	viper.SetDefault(KeyBaseTemplate, "with-tailwind")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", FilePath(), err)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Lookup returns the string form of key. List values are joined with
// commas.
func Lookup(key string) (string, error) {
	if !isKnownKey(key) {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	if key == KeyManifestPaths {
		return strings.Join(viper.GetStringSlice(key), ","), nil
	}
	return viper.GetString(key), nil
}

// All returns every known key with its current value. Secrets are masked.
func All() map[string]string {
	out := make(map[string]string, len(Keys))
	for _, k := range Keys {
		v, _ := Lookup(k)
		if k == KeyGitHubToken && v != "" {
			v = mask(v)
		}
		out[k] = v
	}
	return out
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

// FeaturesDir returns the directory holding feature source trees. The
// configured value wins, then templates/features next to the running
// executable. An empty result means the sources built into the binary.
func FeaturesDir() string {
	if dir := viper.GetString(KeyFeaturesDir); dir != "" {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	dir := filepath.Join(filepath.Dir(exe), "templates", "features")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

// ManifestPaths returns the configured manifest patch targets, or nil when
// the built-in list should be used. Values from the environment are
// comma-separated like those given to Set.
func ManifestPaths() []string {
	if s, ok := viper.Get(KeyManifestPaths).(string); ok {
		return splitList(s)
	}
	return viper.GetStringSlice(KeyManifestPaths)
}

// VersionsFile returns the path of an optional YAML overlay for the
// version catalog.
func VersionsFile() string {
	return viper.GetString(KeyVersionsFile)
}

// GitHubToken returns the token used for template downloads. The
// configured key wins over GITHUB_TOKEN.
func GitHubToken() string {
	if tok := viper.GetString(KeyGitHubToken); tok != "" {
		return tok
	}
	return os.Getenv("GITHUB_TOKEN")
}

// PackageManager returns the default package manager.
func PackageManager() string {
	return viper.GetString(KeyPackageManager)
}

// BaseTemplate returns the default base template key.
func BaseTemplate() string {
	return viper.GetString(KeyBaseTemplate)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	if key == KeyManifestPaths {
		viper.Set(key, splitList(value))
	} else {
		viper.Set(key, value)
	}

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func isKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
