// Package chromecache reads the Chromium "blockfile" disk cache backend.
//
// A cache directory holds an index file with a hash table of entry
// addresses, block files data_1 through data_3 with fixed-size blocks, and
// external f_xxxxxx files for large payloads. Parser takes read-only
// snapshots of that layout while the browser keeps running; torn reads of
// the index are retried and individual undecodable entries are skipped.
// Snapshot.CopyData streams an entry's body into a directory, optionally
// undoing its Content-Encoding.
package chromecache
