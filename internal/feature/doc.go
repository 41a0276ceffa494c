// Package feature layers pre-authored feature packages onto a generated
// project. Each recognized feature maps to a source tree that is copied into
// packages/<feature>/ without ever overwriting a file already present.
package feature
