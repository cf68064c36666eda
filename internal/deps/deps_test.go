package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/services"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present", "#!/bin/sh\nexit 0\n")

	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("present binary: %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("missing binary: %#v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unset binary: %#v", results[2])
	}
}

func TestVerifyFFmpegReportsVersion(t *testing.T) {
	binDir := t.TempDir()
	stub := writeStub(t, binDir, "ffmpeg", "#!/bin/sh\necho 'ffmpeg version 7.1 Copyright (c) 2000-2024'\necho 'built with gcc'\nexit 0\n")

	version, err := VerifyFFmpeg(context.Background(), stub)
	if err != nil {
		t.Fatalf("VerifyFFmpeg: %v", err)
	}
	if !strings.HasPrefix(version, "ffmpeg version 7.1") {
		t.Fatalf("version = %q", version)
	}
}

func TestVerifyFFmpegMissingBinary(t *testing.T) {
	_, err := VerifyFFmpeg(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, services.ErrToolUnavailable) {
		t.Fatalf("error = %v, want ErrToolUnavailable", err)
	}
}

func TestVerifyFFmpegNonzeroExit(t *testing.T) {
	binDir := t.TempDir()
	stub := writeStub(t, binDir, "ffmpeg", "#!/bin/sh\nexit 3\n")

	_, err := VerifyFFmpeg(context.Background(), stub)
	if !errors.Is(err, services.ErrToolUnavailable) {
		t.Fatalf("error = %v, want ErrToolUnavailable", err)
	}
}
