// Package config loads, normalizes, and validates cache2mp4 configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CACHE2MP4_CACHE_DIR
// environment fallback. Callers obtain the browser cache location, poll
// cadence, ffmpeg settings, and logging options from a single Config value.
package config
