package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusDownloaded  Status = "downloaded"
	StatusProcessing  Status = "processing"
	StatusProcessed   Status = "processed"
	StatusFinalizing  Status = "finalizing"
	StatusReady       Status = "ready"
	StatusFailed      Status = "failed"
)

// Progress-stage labels recorded when in-flight items are rolled back outside
// normal stage completion.
const (
	// CrashResetReason marks items recovered at daemon startup after a crash
	// or unclean shutdown.
	CrashResetReason = "Reset from stuck processing"
	// DaemonStopReason marks items reset because the daemon shut down
	// mid-stage.
	DaemonStopReason = "Daemon stopped"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusProcessing,
	StatusProcessed,
	StatusFinalizing,
	StatusReady,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading: {},
	StatusProcessing:  {},
	StatusFinalizing:  {},
}

// rollbackStatus maps each in-flight status to the stable status a stuck item
// returns to when the daemon recovers it.
var rollbackStatus = map[Status]Status{
	StatusDownloading: StatusPending,
	StatusProcessing:  StatusDownloaded,
	StatusFinalizing:  StatusProcessed,
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Ready      int
	Failed     int
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID              int64
	SourceURL       string
	SourcePath      string
	Title           string
	Channel         string
	Status          Status
	DownloadedFile  string
	ProcessedFile   string
	ThumbnailPath   string
	SourceInfoJSON  string
	ProbeJSON       string
	MetadataJSON    string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// SourceLabel returns the most descriptive identifier available for display.
func (i Item) SourceLabel() string {
	if i.Title != "" {
		return i.Title
	}
	if i.SourceURL != "" {
		return i.SourceURL
	}
	return i.SourcePath
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetFailed marks the item as failed with the given error message and clears
// the heartbeat so the item is never reclaimed as stale.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.ProgressStage = "Failed"
	i.LastHeartbeat = nil
}
