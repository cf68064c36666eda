package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipforge/internal/services"
)

// thumbnailOffset is where in the processed clip the frame is sampled.
const thumbnailOffset = "00:00:03"

// generateThumbnail extracts a single frame from the processed video, writing
// a JPEG beside it with the same base filename. Callers treat failure as
// non-fatal: the processed video is the primary deliverable.
func (p *Processor) generateThumbnail(ctx context.Context, videoPath string) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", services.Wrap(services.ErrNotFound, "thumbnail", "", fmt.Sprintf("processed video missing: %s", videoPath), nil)
	}

	thumbnailPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".jpg"

	cmd := commandContext(ctx, p.cfg.Paths.FFmpegBinary,
		"-y",
		"-i", videoPath,
		"-ss", thumbnailOffset,
		"-frames:v", "1",
		thumbnailPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		if removeErr := os.Remove(thumbnailPath); removeErr != nil && !os.IsNotExist(removeErr) {
			p.logger.Warn("failed to remove partial thumbnail", "error", removeErr)
		}
		return "", services.Wrap(services.ErrProcessingFailed, "thumbnail", "ffmpeg", strings.TrimSpace(string(output)), err)
	}
	return thumbnailPath, nil
}
