package preflight

import (
	"fmt"
	"os/exec"
	"strings"

	"podenrich/internal/config"
)

// Requirement defines an external binary podenrich relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// BinaryStatus reports the availability of a binary.
type BinaryStatus struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []BinaryStatus {
	results := make([]BinaryStatus, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := BinaryStatus{
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
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Detail = resolved
		results = append(results, status)
	}
	return results
}

// SystemRequirements lists the binaries the configured providers need.
func SystemRequirements(cfg *config.Config) []Requirement {
	requirements := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Audio.FFmpegBinary,
			Description: "Required for audio chunking",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Audio.FFprobeBinary,
			Description: "Required for audio duration probing",
		},
	}
	if cfg.Transcription.Provider == config.ProviderWhisperX {
		requirements = append(requirements, Requirement{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Required for WhisperX transcription",
		})
	}
	return requirements
}

// CheckSystemDeps evaluates SystemRequirements as preflight results.
func CheckSystemDeps(cfg *config.Config) []Result {
	statuses := CheckBinaries(SystemRequirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, st := range statuses {
		results = append(results, Result{
			Name:     st.Name,
			Passed:   st.Available,
			Optional: st.Optional,
			Detail:   st.Detail,
		})
	}
	return results
}
