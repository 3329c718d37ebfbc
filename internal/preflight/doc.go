// Package preflight provides readiness checks for the filesystem paths and
// external binaries cache2mp4 depends on.
//
// The extract command runs RunAll once before polling starts. Failures are
// reported as warnings rather than aborting: the browser may create its
// cache later, and ffmpeg is only needed after extraction finishes.
package preflight
