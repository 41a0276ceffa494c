// Package cli defines the Cobra command tree for create-dta. The root
// command resolves flags, prompts and user config into a composition and
// hands it to the compose package. The remaining commands inspect the
// built-in catalogs, the user config and generated projects.
package cli
