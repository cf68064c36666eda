// Package processor drives FFmpeg to transform downloaded clips into
// upload-ready vertical videos.
//
// A job flows through five steps: probe the source (ffprobe), build the
// ordered filter stage chain from the effective processing settings, assemble
// the full FFmpeg argument list, run the encode while streaming progress from
// the tool's output, and extract a thumbnail frame from the result.
//
// The filter graph is modelled as a chain of FilterStage values with synthetic
// stream labels and only serialized to FFmpeg's filter_complex syntax at the
// command boundary, keeping graph construction testable independent of syntax.
// Randomized stages draw from an injectable Rand source so tests can pin
// exact values.
package processor
