package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"clipforge/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.VideosDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	results := RunAll(&cfg)
	// Videos, output, and log directories; no channel uses a watermark.
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_IncludesWatermarksWhenConfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.VideosDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.WatermarksDir = t.TempDir()
	cfg.Channels = map[string]config.Channel{
		"main": {Name: "Main", Watermark: "logo.png"},
	}

	results := RunAll(&cfg)
	found := false
	for _, r := range results {
		if r.Name == "Watermarks directory" {
			found = true
			if !r.Passed {
				t.Errorf("watermarks check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected watermarks directory check in results")
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.FFmpegBinary = filepath.Join(t.TempDir(), "missing-ffmpeg")
	cfg.Paths.FFprobeBinary = "sh"
	cfg.Paths.YtDlpBinary = "sh"

	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		switch s.Name {
		case "FFmpeg":
			if s.Available {
				t.Error("expected FFmpeg to be unavailable")
			}
		case "FFprobe", "yt-dlp":
			if !s.Available {
				t.Errorf("expected %s to resolve via PATH", s.Name)
			}
		}
	}
}
