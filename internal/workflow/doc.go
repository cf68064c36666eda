// Package workflow advances queue items through the configured processing
// stages.
//
// The Manager polls the queue on a single lane, reclaims stale work via
// heartbeats, and feeds items into the registered stage handlers (download,
// process, finalize) while capturing progress and failure metadata. A stage
// failure isolates to its item; the loop moves on to the next eligible item.
//
// Add new lifecycle stages by extending StageSet, updating the queue status
// enums, and teaching the manager how to transition items; this package is
// the authoritative home for that coordination logic.
package workflow
