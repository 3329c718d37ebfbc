// Package main hosts the cache2mp4 CLI entrypoint and command graph.
//
// The root command either extracts a stream's segments from the browser
// cache into an output directory and muxes them with ffmpeg, or, with
// --check-files, audits an output directory against its manifest. The
// config subcommands scaffold and validate the TOML configuration file.
//
// Keep this package lean: extraction, auditing and muxing live in internal
// packages and are only wired together here.
package main
