// Package downloader fetches source clips with yt-dlp and reports download
// progress back to the workflow.
package downloader

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// commandContext is swapped in tests to observe or stub tool invocations.
var commandContext = exec.CommandContext

const (
	progressInterval = 500 * time.Millisecond
	outputTailLines  = 20
)

var (
	progressPattern    = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%`)
	destinationPattern = regexp.MustCompile(`\[download\] Destination: (.+)`)
	mergePattern       = regexp.MustCompile(`\[Merger\] Merging formats into "(.+)"`)
	alreadyPattern     = regexp.MustCompile(`\[download\] (.+) has already been downloaded`)
)

// Info captures the clip metadata yt-dlp reports before downloading.
type Info struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Uploader    string   `json:"uploader"`
	WebpageURL  string   `json:"webpage_url"`
	Duration    float64  `json:"duration"`
	Tags        []string `json:"tags"`
}

// Downloader wraps the yt-dlp binary configured in Paths.
type Downloader struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs a Downloader bound to the given config.
func New(cfg *config.Config, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Downloader{
		cfg:    cfg,
		logger: logger.With(logging.String(logging.FieldComponent, "downloader")),
	}
}

// FetchInfo asks yt-dlp for clip metadata without downloading anything.
func (d *Downloader) FetchInfo(ctx context.Context, sourceURL string) (*Info, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	args := []string{"--dump-json", "--no-download", "--no-playlist", "--", sourceURL}
	cmd := commandContext(ctx, d.cfg.Paths.YtDlpBinary, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, services.Wrap(classifyToolError(err), "download", "fetch info",
			fmt.Sprintf("yt-dlp info fetch for %s", sourceURL), err)
	}

	info := &Info{}
	if err := json.Unmarshal(output, info); err != nil {
		return nil, services.Wrap(services.ErrTransient, "download", "parse info",
			"yt-dlp emitted unparsable metadata", err)
	}
	return info, nil
}

// Download fetches the clip into destDir and returns the path of the
// downloaded file. Progress callbacks receive whole percentages, throttled;
// 100 is only delivered once the file is verified on disk.
func (d *Downloader) Download(ctx context.Context, sourceURL, destDir string, onProgress func(int)) (string, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	logger := logging.WithContext(ctx, d.logger)
	template := filepath.Join(destDir, "%(id)s.%(ext)s")

	args := []string{
		"--newline",
		"--no-playlist",
		"-f", d.cfg.Download.Format,
		"-o", template,
		"--", sourceURL,
	}

	cmd := commandContext(ctx, d.cfg.Paths.YtDlpBinary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "download", "stdout pipe", "", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return "", services.Wrap(classifyToolError(err), "download", "start yt-dlp", "", err)
	}

	var destination string
	tail := &outputTail{}
	throttle := newThrottle(progressInterval)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024)
	for scanner.Scan() {
		line := scanner.Text()
		tail.add(line)
		logger.Debug("yt-dlp output", logging.String("line", line))

		if path, ok := parseDestination(line); ok {
			destination = path
		}
		pct, ok := parseProgressLine(line)
		if !ok || onProgress == nil {
			continue
		}
		// yt-dlp prints 100% before merging and renaming, both of which can
		// still fail; the true 100 is reported after a verified completion.
		if pct > 99 {
			pct = 99
		}
		if throttle.allow(time.Now(), pct) {
			onProgress(pct)
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		removePartialDownload(destination, logger)
		return "", services.Wrap(services.ErrTransient, "download", "yt-dlp", tail.String(), err)
	}
	if scanErr != nil {
		return "", services.Wrap(services.ErrTransient, "download", "read yt-dlp output", "", scanErr)
	}
	if destination == "" {
		return "", services.Wrap(services.ErrTransient, "download", "locate file",
			"yt-dlp reported no destination", nil)
	}
	if _, err := os.Stat(destination); err != nil {
		return "", services.Wrap(services.ErrTransient, "download", "locate file", destination, err)
	}
	if onProgress != nil && throttle.allow(time.Now(), 100) {
		onProgress(100)
	}
	return destination, nil
}

func (d *Downloader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := d.cfg.Download.TimeoutSeconds
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
}

// parseProgressLine extracts a whole download percentage from a yt-dlp
// "[download]  42.3%" line.
func parseProgressLine(line string) (int, bool) {
	match := progressPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return int(value), true
}

// parseDestination recognizes the lines yt-dlp prints to announce where the
// final file landed. Merged downloads report the container path last, which
// overrides the per-format destinations.
func parseDestination(line string) (string, bool) {
	if match := mergePattern.FindStringSubmatch(line); match != nil {
		return strings.TrimSpace(match[1]), true
	}
	if match := destinationPattern.FindStringSubmatch(line); match != nil {
		return strings.TrimSpace(match[1]), true
	}
	if match := alreadyPattern.FindStringSubmatch(line); match != nil {
		return strings.TrimSpace(match[1]), true
	}
	return "", false
}

// classifyToolError distinguishes a missing binary from a download failure.
func classifyToolError(err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return services.ErrToolUnavailable
	}
	return services.ErrTransient
}

func removePartialDownload(path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove partial download", logging.Error(fmt.Errorf("remove %s: %w", path, err)))
	}
}

// outputTail keeps the last few lines of tool output for failure diagnostics.
type outputTail struct {
	lines []string
}

func (t *outputTail) add(line string) {
	if len(t.lines) == outputTailLines {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:outputTailLines-1]
	}
	t.lines = append(t.lines, line)
}

func (t *outputTail) String() string {
	return strings.Join(t.lines, "\n")
}

// throttle limits progress callbacks to one per interval while always letting
// larger percentages through monotonically.
type throttle struct {
	interval time.Duration
	last     time.Time
	lastPct  int
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{interval: interval, lastPct: -1}
}

func (t *throttle) allow(now time.Time, pct int) bool {
	if pct <= t.lastPct {
		return false
	}
	if !t.last.IsZero() && now.Sub(t.last) < t.interval && pct < 100 {
		return false
	}
	t.last = now
	t.lastPct = pct
	return true
}
