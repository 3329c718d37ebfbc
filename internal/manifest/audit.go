package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"cache2mp4/internal/failures"
)

// ErrNotFound reports that a directory holds no manifest.
var ErrNotFound = fmt.Errorf("m3u8 file %w", failures.ErrNotFound)

// Report is the outcome of auditing an output directory.
type Report struct {
	Manifest string
	Required []string
	Missing  []string
}

// Present is the number of required files found on disk.
func (r Report) Present() int { return len(r.Required) - len(r.Missing) }

// Complete reports whether nothing is missing.
func (r Report) Complete() bool { return len(r.Missing) == 0 }

// Locate returns the lexicographically first *.m3u8 file directly in dir.
func Locate(dir string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "*.m3u8")
	if err != nil {
		return "", fmt.Errorf("search %s for manifest: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// Audit compares the manifest in dir with the files next to it.
func Audit(dir string) (Report, error) {
	name, err := Locate(dir)
	if err != nil {
		return Report{}, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return Report{}, failures.Wrap(failures.ErrConfiguration, "manifest", "audit", "read "+name, err)
	}

	report := Report{Manifest: name, Required: Candidates(string(data))}
	for _, required := range report.Required {
		_, err := os.Stat(filepath.Join(dir, required))
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
			report.Missing = append(report.Missing, required)
		default:
			return Report{}, fmt.Errorf("stat %s: %w", required, err)
		}
	}
	return report, nil
}
