// Package config manages user-level settings stored at
// ~/.create-dta/config.yaml. It provides functions to load, read, and write
// configuration keys such as the feature source directory, the manifest
// patch targets, and defaults for the package manager and base template.
package config
