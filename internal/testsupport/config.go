package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"clipforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.VideosDir = filepath.Join(base, "videos")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.WatermarksDir = filepath.Join(base, "watermarks")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithProcessing replaces the global processing settings on the test config.
func WithProcessing(p config.Processing) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Processing = p
	}
}

// WithChannel registers a channel on the test config.
func WithChannel(id string, channel config.Channel) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Channels == nil {
			b.cfg.Channels = map[string]config.Channel{}
		}
		b.cfg.Channels[id] = channel
	}
}

// WithStubbedBinaries writes stub executables for the provided names, points
// the config's binary paths at them when the names match, and returns their
// directory via the config. If names is empty, the default clipforge external
// binaries are stubbed. Each stub exits 0 and produces no output; use
// StubBinary directly for scripted behaviour.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "yt-dlp"}
		}
		for _, name := range names {
			path := StubBinary(b.t, b.baseDir, name, "#!/bin/sh\nexit 0\n")
			switch name {
			case "ffmpeg":
				b.cfg.Paths.FFmpegBinary = path
			case "ffprobe":
				b.cfg.Paths.FFprobeBinary = path
			case "yt-dlp":
				b.cfg.Paths.YtDlpBinary = path
			}
		}
	}
}

// StubBinary writes an executable shell script under baseDir/bin and returns
// its absolute path.
func StubBinary(t testing.TB, baseDir, name, script string) string {
	t.Helper()

	binDir := filepath.Join(baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
