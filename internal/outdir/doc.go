// Package outdir inspects and guards the directory extracted segments are
// written to. Scan reports what a previous run already materialized so the
// extraction can resume; Lock keeps two runs from writing the same directory.
package outdir
