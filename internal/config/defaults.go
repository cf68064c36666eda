package config

const (
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultYtDlpBinary   = "yt-dlp"
	defaultVideosDir     = "~/.local/share/clipforge/videos"
	defaultOutputDir     = "~/.local/share/clipforge/output"
	defaultWatermarksDir = "~/.local/share/clipforge/watermarks"
	defaultLogDir        = "~/.local/share/clipforge/logs"

	defaultSaturation         = 1.2
	defaultBrightness         = 1.1
	defaultDenoiseStrength    = 3
	defaultSharpness          = 1.5
	defaultWatermarkOpacity   = 0.8
	defaultSpeedRandomization = 0.05
	defaultZoomFactor         = 1.02
	defaultPixelShift         = 1
	defaultCRF                = 23
	defaultBitrate            = "2M"
	defaultThreads            = 4

	defaultDownloadFormat  = "mp4"
	defaultDownloadTimeout = 300

	defaultTitleSuffix    = "#Shorts"
	defaultPrivacyStatus  = "private"
	defaultMaxTitleLength = 100

	defaultQueuePollInterval = 5

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			YtDlpBinary:   defaultYtDlpBinary,
			VideosDir:     defaultVideosDir,
			OutputDir:     defaultOutputDir,
			WatermarksDir: defaultWatermarksDir,
			LogDir:        defaultLogDir,
		},
		Processing: Processing{
			Saturation:         defaultSaturation,
			Brightness:         defaultBrightness,
			DenoiseStrength:    defaultDenoiseStrength,
			Sharpness:          defaultSharpness,
			WatermarkOpacity:   defaultWatermarkOpacity,
			SpeedRandomization: defaultSpeedRandomization,
			ZoomFactor:         defaultZoomFactor,
			PixelShift:         defaultPixelShift,
			AudioNormalization: true,
			CRF:                defaultCRF,
			Bitrate:            defaultBitrate,
			Threads:            defaultThreads,
		},
		Channels: map[string]Channel{},
		Download: Download{
			Format:         defaultDownloadFormat,
			TimeoutSeconds: defaultDownloadTimeout,
		},
		Metadata: Metadata{
			TitleSuffix:    defaultTitleSuffix,
			AttributeSrc:   true,
			PrivacyStatus:  defaultPrivacyStatus,
			MaxTitleLength: defaultMaxTitleLength,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
