// Package services defines the shared error taxonomy and context plumbing used
// by every Clipforge stage.
//
// Stage code wraps failures with sentinel markers (ErrNotFound,
// ErrToolUnavailable, ErrNoVideoStream, ErrProcessingFailed, ...) so the
// workflow manager and CLI can classify outcomes without string matching.
// Context helpers carry queue item IDs, stage names, and correlation IDs for
// structured logging.
package services
