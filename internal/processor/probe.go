package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"clipforge/internal/media/ffprobe"
	"clipforge/internal/services"
)

// ProbeResult summarizes the source file ahead of processing. Duration is nil
// when the container does not report one; processing proceeds without
// time-based progress estimation in that case.
type ProbeResult struct {
	Duration  *float64
	Width     int
	Height    int
	Codec     string
	FrameRate float64
	HasAudio  bool
}

// Probe inspects the source file. It fails with ErrNotFound before any tool
// invocation when the path does not exist, ErrToolUnavailable when ffprobe is
// missing or exits nonzero, and ErrNoVideoStream when the container carries no
// usable video track.
func (p *Processor) Probe(ctx context.Context, path string) (ProbeResult, error) {
	if _, err := os.Stat(path); err != nil {
		return ProbeResult{}, services.Wrap(services.ErrNotFound, "probe", "", fmt.Sprintf("input video not found: %s", path), nil)
	}

	result, err := ffprobe.Inspect(ctx, p.cfg.Paths.FFprobeBinary, path)
	if err != nil {
		return ProbeResult{}, services.Wrap(services.ErrToolUnavailable, "probe", "inspect", "", err)
	}

	video, ok := result.FirstVideoStream()
	if !ok {
		return ProbeResult{}, services.Wrap(services.ErrNoVideoStream, "probe", "", fmt.Sprintf("no video stream in %s", path), nil)
	}

	probe := ProbeResult{
		Width:     video.Width,
		Height:    video.Height,
		Codec:     video.CodecName,
		FrameRate: video.FrameRate(),
		HasAudio:  result.HasAudio(),
	}
	if seconds := result.DurationSeconds(); seconds > 0 {
		probe.Duration = &seconds
	} else if seconds, known, durErr := ffprobe.Duration(ctx, p.cfg.Paths.FFprobeBinary, path); durErr == nil && known {
		// Some containers omit format.duration from the full inspection but
		// still answer a targeted single-value query.
		probe.Duration = &seconds
	}
	return probe, nil
}

// classifyToolError distinguishes a missing binary from a tool failure.
func classifyToolError(err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return services.ErrToolUnavailable
	}
	return services.ErrProcessingFailed
}
