// Package compose turns a validated project composition into a project
// directory on disk. It fetches the base template, pins dependency
// versions, layers feature packages, rewrites the root manifest, writes the
// metadata record and README, and optionally installs dependencies.
//
// Only an existing target directory and a failed fetch abort a run. Every
// other per-item problem is reported as a warning and the run continues.
// A run is not resumable: once the template has been fetched the directory
// exists, and composing the same name again fails immediately.
package compose
