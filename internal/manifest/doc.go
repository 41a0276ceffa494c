// Package manifest performs targeted edits on package.json manifests inside
// a generated project. It rewrites dependency entries that appear in the
// version catalog to their pinned versions and sets the root package
// identity, leaving every other key and its order untouched.
package manifest
