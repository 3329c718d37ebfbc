package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary cache2mp4 invokes.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// MuxRequirements lists the binaries needed once extraction finishes.
func MuxRequirements(ffmpegBinary string) []Requirement {
	return []Requirement{{
		Name:        "FFmpeg",
		Command:     ffmpegBinary,
		Description: "remuxes the extracted playlist into a single container",
	}}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Command = path
		results = append(results, status)
	}
	return results
}

// Unavailable filters statuses down to required binaries that are missing.
func Unavailable(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
