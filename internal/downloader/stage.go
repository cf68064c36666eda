package downloader

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

// Stage adapts the downloader to the workflow stage contract.
type Stage struct {
	cfg    *config.Config
	store  *queue.Store
	dl     *Downloader
	logger *slog.Logger
}

// NewStage constructs the download stage handler.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{
		cfg:    cfg,
		store:  store,
		dl:     New(cfg, logger),
		logger: logger.With(logging.String(logging.FieldComponent, "download-stage")),
	}
}

// Prepare fetches clip metadata and records it on the item before the
// download begins.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	url := strings.TrimSpace(item.SourceURL)
	if url == "" {
		return services.Wrap(services.ErrValidation, "download", "prepare",
			"queue item has no source url", nil)
	}

	info, err := s.dl.FetchInfo(ctx, url)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return services.Wrap(services.ErrProcessingFailed, "download", "prepare",
			"marshal clip info", err)
	}
	item.SourceInfoJSON = string(raw)
	if item.Title == "" {
		item.Title = info.Title
	}
	return nil
}

// Execute downloads the clip into the videos directory, persisting throttled
// progress as it goes.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)

	path, err := s.dl.Download(ctx, item.SourceURL, s.cfg.Paths.VideosDir, func(pct int) {
		item.SetProgress("Downloading", fmt.Sprintf("Downloading clip (%d%%)", pct), float64(pct))
		if err := s.store.Update(ctx, item); err != nil {
			logger.Warn("failed to persist download progress", logging.Error(err))
		}
	})
	if err != nil {
		return err
	}

	item.DownloadedFile = path
	item.SetProgress("Downloading", "Download complete", 100)
	logger.Info("clip downloaded", logging.String("file", path))
	return nil
}

// HealthCheck reports whether the yt-dlp binary is resolvable.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "download"
	if _, err := exec.LookPath(s.cfg.Paths.YtDlpBinary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("yt-dlp unavailable: %v", err))
	}
	return stage.Healthy(name)
}
