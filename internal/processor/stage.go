package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/queue"
	"clipforge/internal/services"
	"clipforge/internal/stage"
)

// Stage adapts the processor to the workflow stage contract.
type Stage struct {
	cfg    *config.Config
	store  *queue.Store
	proc   *Processor
	logger *slog.Logger
}

// NewStage constructs the processing stage handler.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{
		cfg:    cfg,
		store:  store,
		proc:   New(cfg, logger, opts...),
		logger: logger.With(logging.String(logging.FieldComponent, "process-stage")),
	}
}

// Prepare validates that the stage has an input file to work on.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if strings.TrimSpace(item.DownloadedFile) == "" {
		return services.Wrap(services.ErrValidation, "process", "prepare",
			"queue item has no downloaded file", nil)
	}
	return nil
}

// Execute runs the full pipeline on the downloaded file and records the
// output artifacts on the item.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)

	result, err := s.proc.Process(ctx, Job{
		InputPath: item.DownloadedFile,
		Channel:   item.Channel,
		OnProgress: func(pct int) {
			item.SetProgress("Processing", fmt.Sprintf("Processing clip (%d%%)", pct), float64(pct))
			if err := s.store.Update(ctx, item); err != nil {
				logger.Warn("failed to persist processing progress", logging.Error(err))
			}
		},
	})
	if err != nil {
		return err
	}

	probeJSON, err := json.Marshal(result.Probe)
	if err != nil {
		return services.Wrap(services.ErrProcessingFailed, "process", "persist probe",
			"marshal probe result", err)
	}

	item.ProcessedFile = result.OutputPath
	item.ThumbnailPath = result.ThumbnailPath
	item.ProbeJSON = string(probeJSON)
	item.SetProgress("Processing", "Processing complete", 100)
	logger.Info("clip processed",
		logging.String("output", result.OutputPath),
		logging.String("thumbnail", result.ThumbnailPath),
	)
	return nil
}

// HealthCheck reports whether the ffmpeg and ffprobe binaries are resolvable.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "process"
	if _, err := exec.LookPath(s.cfg.Paths.FFmpegBinary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg unavailable: %v", err))
	}
	if _, err := exec.LookPath(s.cfg.Paths.FFprobeBinary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffprobe unavailable: %v", err))
	}
	return stage.Healthy(name)
}
