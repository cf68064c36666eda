package preflight

import (
	"clipforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The watermark directory is only checked when at least one channel
// references a watermark asset.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Videos directory", cfg.Paths.VideosDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if anyChannelUsesWatermark(cfg) {
		results = append(results, CheckDirectoryAccess("Watermarks directory", cfg.Paths.WatermarksDir))
	}

	return results
}

func anyChannelUsesWatermark(cfg *config.Config) bool {
	for _, channel := range cfg.Channels {
		if channel.Watermark != "" {
			return true
		}
	}
	return false
}
