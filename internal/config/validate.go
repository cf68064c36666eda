package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var bitratePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[kKmM]?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateChannels(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.VideosDir == "" {
		return errors.New("paths.videos_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.VideosDir == c.Paths.OutputDir {
		return errors.New("paths.videos_dir and paths.output_dir must differ")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	return validateProcessingValues("processing", c.Processing)
}

func validateProcessingValues(prefix string, p Processing) error {
	if p.Saturation < 0 || p.Saturation > 3 {
		return fmt.Errorf("%s.saturation must be between 0 and 3", prefix)
	}
	if p.Brightness < 0.5 || p.Brightness > 2 {
		return fmt.Errorf("%s.brightness must be between 0.5 and 2", prefix)
	}
	if p.DenoiseStrength < 0 || p.DenoiseStrength > 10 {
		return fmt.Errorf("%s.denoise_strength must be between 0 and 10", prefix)
	}
	if p.Sharpness < 0 || p.Sharpness > 5 {
		return fmt.Errorf("%s.sharpness must be between 0 and 5", prefix)
	}
	if p.WatermarkOpacity < 0 || p.WatermarkOpacity > 1 {
		return fmt.Errorf("%s.watermark_opacity must be between 0 and 1", prefix)
	}
	if p.SpeedRandomization < 0 || p.SpeedRandomization >= 1 {
		return fmt.Errorf("%s.speed_randomization must be in [0, 1)", prefix)
	}
	if p.ZoomFactor < 1 || p.ZoomFactor > 2 {
		return fmt.Errorf("%s.zoom_factor must be between 1 and 2", prefix)
	}
	if p.PixelShift < 0 || p.PixelShift > 16 {
		return fmt.Errorf("%s.pixel_shift must be between 0 and 16", prefix)
	}
	if p.CRF < 0 || p.CRF > 51 {
		return fmt.Errorf("%s.crf must be between 0 and 51", prefix)
	}
	if !bitratePattern.MatchString(strings.TrimSpace(p.Bitrate)) {
		return fmt.Errorf("%s.bitrate %q is not a valid rate (e.g. 2M, 1500k)", prefix, p.Bitrate)
	}
	if p.Threads < 0 {
		return fmt.Errorf("%s.threads must not be negative", prefix)
	}
	return nil
}

func (c *Config) validateChannels() error {
	for id := range c.Channels {
		if strings.TrimSpace(id) == "" {
			return errors.New("channels must use non-empty identifiers")
		}
		effective := c.ProcessingFor(id)
		if err := validateProcessingValues(fmt.Sprintf("channels.%s.processing", id), effective); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateMetadata() error {
	switch c.Metadata.PrivacyStatus {
	case "private", "unlisted", "public":
		return nil
	default:
		return fmt.Errorf("metadata.privacy_status %q must be private, unlisted, or public", c.Metadata.PrivacyStatus)
	}
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval < 1 {
		return fmt.Errorf("workflow.queue_poll_interval must be at least 1 second, got %d", c.Workflow.QueuePollInterval)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
