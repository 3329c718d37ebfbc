// Package mux hands a completed segment directory to ffmpeg, which remuxes
// the playlist into a single container next to the directory.
package mux
