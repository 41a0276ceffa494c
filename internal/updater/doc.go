// Package updater checks GitHub releases for a newer create-dta build and
// caches the answer so the startup banner never waits on the network.
package updater
