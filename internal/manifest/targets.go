package manifest

import (
	"sort"
	"strings"
)

// Candidates returns the deduplicated filenames a manifest requires, sorted.
func Candidates(text string) []string {
	set := candidateSet(text)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Targets returns the manifest's required filenames that are not in saved.
// The result is a fresh set owned by the caller.
func Targets(text string, saved map[string]struct{}) map[string]struct{} {
	set := candidateSet(text)
	for name := range saved {
		delete(set, name)
	}
	return set
}

func candidateSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[line] = struct{}{}
	}
	return set
}
