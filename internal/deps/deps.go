// Package deps reports availability of the external binaries the service
// shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/hirelala/audio2vtt/internal/config"
)

// Requirement defines an external dependency audio2vtt relies on.
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

// Requirements returns the dependency set for the given configuration.
func Requirements(cfg *config.Config) []Requirement {
	binary := "whisperx"
	if cfg != nil && cfg.Whisper.Binary != "" {
		binary = cfg.Whisper.Binary
	}
	return []Requirement{
		{
			Name:        "whisper engine",
			Command:     binary,
			Description: "speech-to-text engine with word timestamps",
		},
		{
			Name:        "ffmpeg",
			Command:     "ffmpeg",
			Description: "audio decoding used by the engine",
			Optional:    true,
		},
	}
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
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
