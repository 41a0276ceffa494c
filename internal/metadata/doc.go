// Package metadata reads and writes the project metadata record stored at
// the root of every generated project. The record's field names and types
// are a stable contract for other tooling; every record is validated
// against an embedded JSON Schema before it is written.
package metadata
