package processor

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// commandContext is swapped in tests to observe or stub tool invocations.
var commandContext = exec.CommandContext

const (
	progressInterval = 500 * time.Millisecond
	outputTailLines  = 20
)

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

// runTool launches the encoder, streams its combined output line by line,
// reports throttled progress, and waits for exit. On any failure the partial
// output file is removed before the error is returned; a caller-initiated
// kill (context cancellation) takes the same cleanup path.
func (p *Processor) runTool(ctx context.Context, args []string, duration *float64, outputPath string, onProgress func(int)) error {
	logger := logging.WithContext(ctx, p.logger)

	cmd := commandContext(ctx, p.cfg.Paths.FFmpegBinary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrProcessingFailed, "process", "stdout pipe", "", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return services.Wrap(classifyToolError(err), "process", "start ffmpeg", "", err)
	}

	tail := &outputTail{}
	throttle := newProgressThrottle(progressInterval)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024)
	for scanner.Scan() {
		line := scanner.Text()
		tail.add(line)
		logger.Debug("ffmpeg output", logging.String("line", line))

		elapsed, ok := parseProgressLine(line)
		if !ok || onProgress == nil {
			continue
		}
		pct := progressPercent(elapsed, duration)
		if throttle.allow(time.Now(), pct) {
			onProgress(pct)
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		removePartialOutput(outputPath, logger)
		detail := tail.String()
		if detail != "" {
			return services.Wrap(services.ErrProcessingFailed, "process", "ffmpeg", detail, err)
		}
		return services.Wrap(services.ErrProcessingFailed, "process", "ffmpeg", "", err)
	}
	if scanErr != nil {
		removePartialOutput(outputPath, logger)
		return services.Wrap(services.ErrProcessingFailed, "process", "read ffmpeg output", "", scanErr)
	}
	return nil
}

func removePartialOutput(outputPath string, logger *slog.Logger) {
	if outputPath == "" {
		return
	}
	if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove partial output", logging.Error(fmt.Errorf("remove %s: %w", outputPath, err)))
	}
}
