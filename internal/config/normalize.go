package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDownload()
	c.normalizeMetadata()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.FFmpegBinary = strings.TrimSpace(c.Paths.FFmpegBinary); c.Paths.FFmpegBinary == "" {
		c.Paths.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Paths.FFprobeBinary = strings.TrimSpace(c.Paths.FFprobeBinary); c.Paths.FFprobeBinary == "" {
		c.Paths.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Paths.YtDlpBinary = strings.TrimSpace(c.Paths.YtDlpBinary); c.Paths.YtDlpBinary == "" {
		c.Paths.YtDlpBinary = defaultYtDlpBinary
	}
	if c.Paths.VideosDir, err = expandPath(c.Paths.VideosDir); err != nil {
		return fmt.Errorf("paths.videos_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WatermarksDir, err = expandPath(c.Paths.WatermarksDir); err != nil {
		return fmt.Errorf("paths.watermarks_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownload() {
	c.Download.Format = strings.TrimSpace(c.Download.Format)
	if c.Download.Format == "" {
		c.Download.Format = defaultDownloadFormat
	}
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultDownloadTimeout
	}
}

func (c *Config) normalizeMetadata() {
	c.Metadata.TitleSuffix = strings.TrimSpace(c.Metadata.TitleSuffix)
	c.Metadata.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.Metadata.PrivacyStatus))
	if c.Metadata.PrivacyStatus == "" {
		c.Metadata.PrivacyStatus = defaultPrivacyStatus
	}
	if c.Metadata.MaxTitleLength <= 0 {
		c.Metadata.MaxTitleLength = defaultMaxTitleLength
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
