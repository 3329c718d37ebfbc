package outdir

import (
	"fmt"
	"os"
	"strings"
)

// LockFileName is the advisory lock file kept inside the output directory.
const LockFileName = ".cache2mp4.lock"

// ManifestExt is the extension that identifies a playlist manifest.
const ManifestExt = ".m3u8"

// Listing is the state of an output directory at startup.
type Listing struct {
	// Saved holds every file name already present.
	Saved map[string]struct{}
	// Manifest is the lexicographically first *.m3u8 name, or empty.
	Manifest string
}

// Has reports whether name is present in the listing.
func (l Listing) Has(name string) bool {
	_, ok := l.Saved[name]
	return ok
}

// Scan lists the direct children of dir.
func Scan(dir string) (Listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Listing{}, fmt.Errorf("list output directory: %w", err)
	}

	listing := Listing{Saved: make(map[string]struct{}, len(entries))}
	// os.ReadDir sorts by name, so the first manifest seen is the smallest.
	for _, entry := range entries {
		name := entry.Name()
		if Internal(name) {
			continue
		}
		listing.Saved[name] = struct{}{}
		if listing.Manifest == "" && IsManifest(name) {
			listing.Manifest = name
		}
	}
	return listing, nil
}

// IsManifest reports whether name looks like a playlist manifest.
func IsManifest(name string) bool {
	return strings.HasSuffix(name, ManifestExt)
}

// Internal reports whether name is bookkeeping owned by this tool: the lock
// file or an unfinished atomic write.
func Internal(name string) bool {
	if name == LockFileName {
		return true
	}
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp")
}
