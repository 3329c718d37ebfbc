// Package manifest turns an HLS playlist into the set of segment files it
// requires.
//
// Playlist syntax is not interpreted: every line that is not blank and does
// not start with '#' is taken as an opaque filename. Targets subtracts the
// files already on disk to give the set still outstanding, and Audit reports
// the same difference for an output directory without touching the cache.
package manifest
