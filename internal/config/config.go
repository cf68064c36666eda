package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains binary locations and directory configuration.
type Paths struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	YtDlpBinary   string `toml:"ytdlp_binary"`
	VideosDir     string `toml:"videos_dir"`
	OutputDir     string `toml:"output_dir"`
	WatermarksDir string `toml:"watermarks_dir"`
	LogDir        string `toml:"log_dir"`
}

// Processing contains the transformation options applied to every clip.
// Zero or neutral values disable the corresponding filter stage.
type Processing struct {
	Saturation         float64 `toml:"saturation"`
	Brightness         float64 `toml:"brightness"`
	DenoiseStrength    float64 `toml:"denoise_strength"`
	Sharpness          float64 `toml:"sharpness"`
	WatermarkOpacity   float64 `toml:"watermark_opacity"`
	SpeedRandomization float64 `toml:"speed_randomization"`
	ZoomFactor         float64 `toml:"zoom_factor"`
	PixelShift         float64 `toml:"pixel_shift"`
	AudioNormalization bool    `toml:"audio_normalization"`
	CRF                int     `toml:"crf"`
	Bitrate            string  `toml:"bitrate"`
	Threads            int     `toml:"threads"`
}

// ChannelOverrides is a sparse per-channel processing override set. Nil
// pointers mean "inherit the global value".
type ChannelOverrides struct {
	Saturation         *float64 `toml:"saturation"`
	Brightness         *float64 `toml:"brightness"`
	DenoiseStrength    *float64 `toml:"denoise_strength"`
	Sharpness          *float64 `toml:"sharpness"`
	WatermarkOpacity   *float64 `toml:"watermark_opacity"`
	SpeedRandomization *float64 `toml:"speed_randomization"`
	ZoomFactor         *float64 `toml:"zoom_factor"`
	PixelShift         *float64 `toml:"pixel_shift"`
	AudioNormalization *bool    `toml:"audio_normalization"`
	CRF                *int     `toml:"crf"`
	Bitrate            *string  `toml:"bitrate"`
	Threads            *int     `toml:"threads"`
}

// Channel describes one upload destination and its processing overrides.
type Channel struct {
	Name       string           `toml:"name"`
	Watermark  string           `toml:"watermark"`
	Processing ChannelOverrides `toml:"processing"`
}

// Download contains settings for the clip download stage.
type Download struct {
	Format         string `toml:"format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Metadata contains settings for upload metadata generation.
type Metadata struct {
	TitleSuffix    string   `toml:"title_suffix"`
	DefaultTags    []string `toml:"default_tags"`
	AttributeSrc   bool     `toml:"attribute_source"`
	PrivacyStatus  string   `toml:"privacy_status"`
	MaxTitleLength int      `toml:"max_title_length"`
}

// Workflow contains daemon timing configuration.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Clipforge.
//
// Sections by subsystem:
//   - Paths: external tool binaries and working directories
//   - Processing: global filter pipeline defaults
//   - Channels: per-channel naming, watermark, and processing overrides
//   - Download: yt-dlp format and timeout settings
//   - Metadata: upload metadata generation
//   - Workflow: daemon polling interval
//   - Logging: log format and level
type Config struct {
	Paths      Paths              `toml:"paths"`
	Processing Processing         `toml:"processing"`
	Channels   map[string]Channel `toml:"channels"`
	Download   Download           `toml:"download"`
	Metadata   Metadata           `toml:"metadata"`
	Workflow   Workflow           `toml:"workflow"`
	Logging    Logging            `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The boolean reports whether a
// file was actually found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the given path,
// refusing to clobber an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ProcessingFor returns the effective processing settings for a channel,
// applying the channel's sparse overrides on top of the global defaults.
// The receiver is never mutated.
func (c *Config) ProcessingFor(channelID string) Processing {
	merged := c.Processing
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return merged
	}
	channel, ok := c.Channels[channelID]
	if !ok {
		return merged
	}
	ov := channel.Processing
	if ov.Saturation != nil {
		merged.Saturation = *ov.Saturation
	}
	if ov.Brightness != nil {
		merged.Brightness = *ov.Brightness
	}
	if ov.DenoiseStrength != nil {
		merged.DenoiseStrength = *ov.DenoiseStrength
	}
	if ov.Sharpness != nil {
		merged.Sharpness = *ov.Sharpness
	}
	if ov.WatermarkOpacity != nil {
		merged.WatermarkOpacity = *ov.WatermarkOpacity
	}
	if ov.SpeedRandomization != nil {
		merged.SpeedRandomization = *ov.SpeedRandomization
	}
	if ov.ZoomFactor != nil {
		merged.ZoomFactor = *ov.ZoomFactor
	}
	if ov.PixelShift != nil {
		merged.PixelShift = *ov.PixelShift
	}
	if ov.AudioNormalization != nil {
		merged.AudioNormalization = *ov.AudioNormalization
	}
	if ov.CRF != nil {
		merged.CRF = *ov.CRF
	}
	if ov.Bitrate != nil {
		merged.Bitrate = *ov.Bitrate
	}
	if ov.Threads != nil {
		merged.Threads = *ov.Threads
	}
	return merged
}

// WatermarkFor resolves the watermark asset path for a channel, or "" when the
// channel has none configured. Relative paths resolve under the watermarks dir.
func (c *Config) WatermarkFor(channelID string) string {
	channel, ok := c.Channels[strings.TrimSpace(channelID)]
	if !ok {
		return ""
	}
	mark := strings.TrimSpace(channel.Watermark)
	if mark == "" {
		return ""
	}
	if !filepath.IsAbs(mark) {
		mark = filepath.Join(c.Paths.WatermarksDir, mark)
	}
	return mark
}

// EnsureDirectories creates the working directories Clipforge needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.VideosDir, c.Paths.OutputDir, c.Paths.WatermarksDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDatabasePath returns the location of the queue database file.
func (c *Config) QueueDatabasePath() string {
	return filepath.Join(c.Paths.LogDir, "queue.db")
}

// LockFilePath returns the daemon instance lock location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.LogDir, "clipforge.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
