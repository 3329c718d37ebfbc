package preflight

import (
	"cache2mp4/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for an extraction into outputDir.
func RunAll(cfg *config.Config, outputDir string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCacheDir(cfg.Cache.Dir),
		CheckDirectoryAccess("Output directory", outputDir),
	}
	results = append(results, CheckSystemDeps(cfg)...)
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
