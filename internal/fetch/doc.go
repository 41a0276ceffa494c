// Package fetch materializes a remote base template into a local
// directory. Locators take the form owner/repo[/subpath][#ref] and are
// served from GitHub tarballs; full git URLs are shallow-cloned instead.
//
// Every fetcher stages into a sibling temporary directory and renames it
// into place only on success, so a failed fetch never leaves a partially
// populated destination behind.
package fetch
