package metadata

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/queue"
	"clipforge/internal/services"
	"clipforge/internal/stage"
)

// Stage finalizes upload metadata for a processed clip. It is the last hop
// before an item becomes ready for publishing.
type Stage struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewStage constructs the metadata finalization stage handler.
func NewStage(cfg *config.Config, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{
		cfg:    cfg,
		logger: logger.With(logging.String(logging.FieldComponent, "finalize-stage")),
	}
}

// Prepare validates that the item carries a processed clip to publish.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if strings.TrimSpace(item.ProcessedFile) == "" {
		return services.Wrap(services.ErrValidation, "finalize", "prepare",
			"queue item has no processed file", nil)
	}
	return nil
}

// Execute generates the upload metadata and stores it on the item.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	src := sourceFromItem(item)

	video := Generate(s.cfg, item.Channel, src)
	raw, err := video.Encode()
	if err != nil {
		return services.Wrap(services.ErrProcessingFailed, "finalize", "encode metadata", "", err)
	}

	item.MetadataJSON = raw
	item.Title = video.Title
	item.SetProgress("Finalizing", "Metadata ready", 100)

	logging.WithContext(ctx, s.logger).Info("metadata finalized",
		logging.String("title", video.Title),
		logging.Int("tags", len(video.Tags)),
	)
	return nil
}

// HealthCheck always passes; metadata generation has no external dependency.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("finalize")
}

// sourceFromItem rebuilds the clip source description from whatever the
// download stage recorded. Manually imported files have no source info, so
// the inferred title stands in.
func sourceFromItem(item *queue.Item) Source {
	src := Source{Title: item.Title, URL: item.SourceURL}
	if item.SourceInfoJSON == "" {
		return src
	}
	var info struct {
		Title      string   `json:"title"`
		Uploader   string   `json:"uploader"`
		WebpageURL string   `json:"webpage_url"`
		Tags       []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(item.SourceInfoJSON), &info); err != nil {
		return src
	}
	if info.Title != "" {
		src.Title = info.Title
	}
	src.Uploader = info.Uploader
	if info.WebpageURL != "" {
		src.URL = info.WebpageURL
	}
	src.Tags = info.Tags
	return src
}
