package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify stage and tool failures. Wrap tags an
// error with one of these so callers can branch on the failure class without
// string matching.
var (
	// ErrNotFound marks a missing input file. No tool is invoked in this case.
	ErrNotFound = errors.New("not found")
	// ErrToolUnavailable marks a missing or broken external binary. Raised at
	// startup verification so misconfiguration surfaces before any job runs.
	ErrToolUnavailable = errors.New("tool unavailable")
	// ErrNoVideoStream marks a probed file with no usable video track.
	ErrNoVideoStream = errors.New("no video stream")
	// ErrProcessingFailed marks a nonzero exit from the encoder or downloader.
	ErrProcessingFailed = errors.New("processing failed")
	// ErrValidation marks input that fails a structural check.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures that may succeed on a later attempt.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatalForJob reports whether the error class should fail the whole job
// rather than be retried or ignored.
func IsFatalForJob(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrToolUnavailable),
		errors.Is(err, ErrNoVideoStream),
		errors.Is(err, ErrProcessingFailed),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrConfiguration):
		return true
	default:
		return false
	}
}

// Message strips the sentinel prefix from a wrapped error, returning the
// human-readable detail for progress and queue persistence.
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	for _, marker := range []error{
		ErrNotFound, ErrToolUnavailable, ErrNoVideoStream,
		ErrProcessingFailed, ErrValidation, ErrConfiguration, ErrTransient,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(text, prefix) {
			return strings.TrimPrefix(text, prefix)
		}
	}
	return text
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
