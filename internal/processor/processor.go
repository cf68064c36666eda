package processor

import (
	"context"
	"log/slog"
	"os"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/logging"
)

// Job describes one processing request. It is consumed once and discarded
// after the result is returned or an error is raised.
type Job struct {
	InputPath string
	// Channel selects per-channel processing overrides and the watermark
	// asset. Empty means global defaults with no watermark.
	Channel string
	// OnProgress receives integer percentages in [0, 100]. It is invoked zero
	// or more times during a run; a final call of 100 is guaranteed only on
	// success.
	OnProgress func(int)
}

// Result carries the artifacts of a successful run. ThumbnailPath is empty
// when thumbnail extraction failed (non-fatal).
type Result struct {
	OutputPath    string
	ThumbnailPath string
	Probe         ProbeResult
}

// Processor orchestrates FFmpeg for clip transformation. Each job's filter
// graph, labels, and output path are locally scoped, so a single Processor
// may serve concurrent jobs launched by the caller.
type Processor struct {
	cfg    *config.Config
	logger *slog.Logger
	rng    Rand
}

// Option configures a Processor.
type Option func(*Processor)

// WithRand overrides the random source used by the jitter and shift stages.
func WithRand(rng Rand) Option {
	return func(p *Processor) {
		if rng != nil {
			p.rng = rng
		}
	}
}

// New constructs a Processor.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Processor{cfg: cfg, logger: logger.With(logging.String(logging.FieldComponent, "processor")), rng: systemRand{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the full pipeline for one clip: probe, filter graph, FFmpeg
// encode with streamed progress, then thumbnail extraction. It blocks until
// the external process exits. No retries are attempted; a failed run leaves
// no partial output on disk.
func (p *Processor) Process(ctx context.Context, job Job) (Result, error) {
	probe, err := p.Probe(ctx, job.InputPath)
	if err != nil {
		return Result{}, err
	}

	settings := p.cfg.ProcessingFor(job.Channel)
	watermark := p.cfg.WatermarkFor(job.Channel)
	if watermark != "" {
		if _, statErr := os.Stat(watermark); statErr != nil {
			p.logger.Warn("watermark asset missing, skipping overlay",
				logging.String("watermark", watermark),
				logging.String("channel", job.Channel),
			)
			watermark = ""
		}
	}

	graph := buildFilterGraph(settings, watermark, p.rng)
	outputPath := deriveOutputPath(p.cfg.Paths.OutputDir, job.InputPath, time.Now())
	args := assembleArgs(job.InputPath, watermark, outputPath, graph, settings, probe.Duration)

	logger := logging.WithContext(ctx, p.logger)
	logger.Info("starting ffmpeg encode",
		logging.String("input", job.InputPath),
		logging.String("output", outputPath),
		logging.Int("filter_stages", len(graph.Stages)),
		logging.Bool("duration_known", probe.Duration != nil),
	)

	if err := p.runTool(ctx, args, probe.Duration, outputPath, job.OnProgress); err != nil {
		return Result{}, err
	}

	result := Result{OutputPath: outputPath, Probe: probe}
	thumbnail, thumbErr := p.generateThumbnail(ctx, outputPath)
	if thumbErr != nil {
		logger.Warn("thumbnail generation failed", logging.Error(thumbErr))
	} else {
		result.ThumbnailPath = thumbnail
	}

	if job.OnProgress != nil {
		job.OnProgress(100)
	}
	logger.Info("processing complete",
		logging.String("output", outputPath),
		logging.String("thumbnail", result.ThumbnailPath),
	)
	return result, nil
}
