// Package logging assembles structured slog loggers and formatting helpers used
// across cache2mp4.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes component loggers plus a warning helper that always
// carries event_type, error_hint, and impact fields. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
