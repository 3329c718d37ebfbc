package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"cache2mp4/internal/config"
	"cache2mp4/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckCacheDir verifies that the browser cache directory is readable and
// holds a cache index.
func CheckCacheDir(path string) Result {
	const name = "Cache directory"
	result := checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
	if !result.Passed {
		return result
	}
	if _, err := os.Stat(filepath.Join(path, "index")); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no cache index: %v)", path, err)}
	}
	return result
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckSystemDeps evaluates the external binaries the config refers to.
func CheckSystemDeps(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(deps.MuxRequirements(cfg.FFmpegBinary()))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Command
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: detail,
		})
	}
	return results
}
