package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/config"
)

// Fixed encoding parameters. The codec pair targets broad playback
// compatibility; faststart moves container metadata to the front for
// progressive-download playback.
const (
	videoCodec   = "libx264"
	videoPreset  = "medium"
	audioCodec   = "aac"
	audioBitrate = "192k"
	loudnormExpr = "loudnorm=I=-16:LRA=11:TP=-1.5"
)

// assembleArgs builds the complete FFmpeg argument list for one invocation.
func assembleArgs(inputPath, watermarkPath, outputPath string, graph filterGraph, p config.Processing, duration *float64) []string {
	args := []string{"-y", "-i", inputPath}
	if graph.UsesWatermark {
		args = append(args, "-i", watermarkPath)
	}

	args = append(args,
		"-filter_complex", graph.serialize(),
		"-map", "["+graph.FinalLabel+"]",
		"-map", "0:a?",
	)

	// Never extend past the source: speed jitter can stretch timestamps.
	if duration != nil {
		args = append(args, "-t", strconv.FormatFloat(*duration, 'f', -1, 64))
	}

	if p.AudioNormalization {
		args = append(args, "-af", loudnormExpr)
	}

	args = append(args,
		"-c:v", videoCodec,
		"-preset", videoPreset,
		"-crf", strconv.Itoa(p.CRF),
		"-b:v", p.Bitrate,
		"-c:a", audioCodec,
		"-b:a", audioBitrate,
		"-threads", strconv.Itoa(p.Threads),
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}

// deriveOutputPath names the processed file after the input basename plus a
// timestamp. A sequence suffix resolves collisions so back-to-back runs within
// the same second never overwrite each other.
func deriveOutputPath(outputDir, inputPath string, now time.Time) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	stamp := now.Format("20060102_150405")

	candidate := filepath.Join(outputDir, fmt.Sprintf("%s_processed_%s.mp4", stem, stamp))
	for seq := 1; ; seq++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(outputDir, fmt.Sprintf("%s_processed_%s_%d.mp4", stem, stamp, seq))
	}
}
