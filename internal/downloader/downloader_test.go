package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipforge/internal/services"
	"clipforge/internal/testsupport"
)

const infoScript = `#!/bin/sh
cat <<'EOF'
{"id":"clip123","title":"A Great Clip","description":"desc","uploader":"creator","webpage_url":"https://example.com/clip/123","duration":14.5,"tags":["fun","short"]}
EOF
`

const downloadScript = `#!/bin/sh
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-o" ]; then out="$arg"; fi
  prev="$arg"
done
dir=$(dirname "$out")
dest="$dir/clip123.mp4"
echo "[download] Destination: $dest"
echo "[download]   0.0% of 10.00MiB at 1.00MiB/s ETA 00:10"
echo "[download]  42.3% of 10.00MiB at 1.00MiB/s ETA 00:05"
echo "[download] 100% of 10.00MiB in 00:10"
: > "$dest"
exit 0
`

const failingDownloadScript = `#!/bin/sh
echo "[download]  10.0% of 10.00MiB at 1.00MiB/s ETA 00:10"
echo "ERROR: unable to download video data: HTTP Error 403"
exit 1
`

func newTestDownloader(t *testing.T, script string) *Downloader {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	base := filepath.Dir(cfg.Paths.VideosDir)
	cfg.Paths.YtDlpBinary = testsupport.StubBinary(t, base, "yt-dlp", script)
	return New(cfg, nil)
}

func TestFetchInfo(t *testing.T) {
	dl := newTestDownloader(t, infoScript)

	info, err := dl.FetchInfo(context.Background(), "https://example.com/clip/123")
	if err != nil {
		t.Fatalf("FetchInfo: %v", err)
	}
	if info.ID != "clip123" || info.Title != "A Great Clip" {
		t.Fatalf("unexpected info: %#v", info)
	}
	if info.Duration != 14.5 {
		t.Fatalf("duration = %v", info.Duration)
	}
	if len(info.Tags) != 2 {
		t.Fatalf("tags = %v", info.Tags)
	}
}

func TestFetchInfoMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.YtDlpBinary = filepath.Join(t.TempDir(), "missing-yt-dlp")
	dl := New(cfg, nil)

	_, err := dl.FetchInfo(context.Background(), "https://example.com/clip/123")
	if !errors.Is(err, services.ErrToolUnavailable) {
		t.Fatalf("error = %v, want ErrToolUnavailable", err)
	}
}

func TestDownloadReportsProgressAndPath(t *testing.T) {
	dl := newTestDownloader(t, downloadScript)
	destDir := t.TempDir()

	var reported []int
	path, err := dl.Download(context.Background(), "https://example.com/clip/123", destDir, func(pct int) {
		reported = append(reported, pct)
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(path) != "clip123.mp4" {
		t.Fatalf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}

	if len(reported) == 0 {
		t.Fatal("expected progress callbacks")
	}
	for i := 1; i < len(reported); i++ {
		if reported[i] <= reported[i-1] {
			t.Fatalf("progress not increasing: %v", reported)
		}
	}
	if reported[len(reported)-1] != 100 {
		t.Fatalf("expected final 100%%, got %v", reported)
	}
}

func TestDownloadFailureWrapsTransient(t *testing.T) {
	dl := newTestDownloader(t, failingDownloadScript)

	_, err := dl.Download(context.Background(), "https://example.com/clip/123", t.TempDir(), nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("error = %v, want ErrTransient", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "HTTP Error 403") {
		t.Fatalf("expected output tail in error, got %q", msg)
	}
}

const fullThenFailScript = `#!/bin/sh
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-o" ]; then out="$arg"; fi
  prev="$arg"
done
dir=$(dirname "$out")
echo "[download] Destination: $dir/clip123.f137.mp4"
echo "[download] 100% of 10.00MiB in 00:10"
echo "ERROR: Postprocessing: merging failed"
exit 1
`

func TestDownloadFailureAfterFullProgressNeverReports100(t *testing.T) {
	dl := newTestDownloader(t, fullThenFailScript)

	var reported []int
	_, err := dl.Download(context.Background(), "https://example.com/clip/123", t.TempDir(), func(pct int) {
		reported = append(reported, pct)
	})
	if err == nil {
		t.Fatal("expected download failure")
	}
	for _, pct := range reported {
		if pct >= 100 {
			t.Fatalf("%d%% reported on a failed download: %v", pct, reported)
		}
	}
}

func TestParseProgressLine(t *testing.T) {
	cases := []struct {
		line string
		pct  int
		ok   bool
	}{
		{"[download]  42.3% of 10.00MiB at 1.00MiB/s ETA 00:05", 42, true},
		{"[download] 100% of 10.00MiB in 00:10", 100, true},
		{"[download] Destination: /tmp/x.mp4", 0, false},
		{"random noise", 0, false},
	}
	for _, tc := range cases {
		pct, ok := parseProgressLine(tc.line)
		if ok != tc.ok || pct != tc.pct {
			t.Errorf("parseProgressLine(%q) = %d, %v; want %d, %v", tc.line, pct, ok, tc.pct, tc.ok)
		}
	}
}

func TestParseDestination(t *testing.T) {
	cases := []struct {
		line string
		path string
		ok   bool
	}{
		{"[download] Destination: /tmp/clip.f137.mp4", "/tmp/clip.f137.mp4", true},
		{`[Merger] Merging formats into "/tmp/clip.mp4"`, "/tmp/clip.mp4", true},
		{"[download] /tmp/clip.mp4 has already been downloaded", "/tmp/clip.mp4", true},
		{"[download]  42.3% of 10.00MiB", "", false},
	}
	for _, tc := range cases {
		path, ok := parseDestination(tc.line)
		if ok != tc.ok || path != tc.path {
			t.Errorf("parseDestination(%q) = %q, %v; want %q, %v", tc.line, path, ok, tc.path, tc.ok)
		}
	}
}

func TestThrottleMonotonic(t *testing.T) {
	th := newThrottle(100 * time.Millisecond)
	now := time.Now()

	if !th.allow(now, 5) {
		t.Fatal("first report should pass")
	}
	if th.allow(now.Add(10*time.Millisecond), 10) {
		t.Fatal("report inside interval should be suppressed")
	}
	if th.allow(now.Add(200*time.Millisecond), 10) != true {
		t.Fatal("report after interval should pass")
	}
	if th.allow(now.Add(400*time.Millisecond), 10) {
		t.Fatal("repeat percentage should be suppressed")
	}
	if !th.allow(now.Add(410*time.Millisecond), 100) {
		t.Fatal("final 100 should always pass")
	}
}
