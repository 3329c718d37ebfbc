// Package reconcile drives segment extraction from repeated cache snapshots.
//
// A Session owns the extraction state of one output directory. Before the
// playlist manifest has been seen every matching cache entry is copied out,
// since there is no way yet to tell which segments belong to the stream.
// Once the manifest is on disk the session switches to copying only the
// filenames the manifest still needs, and it is done when that set drains.
//
// Run repeats snapshot, match and copy with a wait between passes. Failures
// of a single pass, such as a torn cache read or an unwritable segment, are
// logged and retried on the next pass by resubmission; nothing is queued.
package reconcile
