// Package deps verifies the external binaries Clipforge shells out to.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

// Requirement defines an external dependency Clipforge relies on.
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

// Requirements returns the binaries the pipeline needs for the given config.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Paths.FFmpegBinary,
			Description: "Required for video processing and thumbnails",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Paths.FFprobeBinary,
			Description: "Required for media inspection",
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.Paths.YtDlpBinary,
			Description: "Required for clip downloads",
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

// VerifyFFmpeg executes "ffmpeg -version" and returns the reported version
// line. It is the startup gate for the whole application: a failure here is
// raised before any job is attempted.
func VerifyFFmpeg(ctx context.Context, binary string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", services.Wrap(services.ErrToolUnavailable, "startup", "verify ffmpeg",
			fmt.Sprintf("%q is not runnable; check paths.ffmpeg_binary", binary), err)
	}
	version, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(version), nil
}
