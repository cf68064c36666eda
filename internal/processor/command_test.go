package processor

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestAssembleArgsFullInvocation(t *testing.T) {
	settings := identitySettings()
	settings.WatermarkOpacity = 0.8
	duration := 42.5

	graph := buildFilterGraph(settings, "/marks/logo.png", fixedRand{0.5})
	args := assembleArgs("/videos/in.mp4", "/marks/logo.png", "/out/in_processed.mp4", graph, settings, &duration)

	if args[0] != "-y" {
		t.Fatalf("args must lead with the overwrite flag, got %q", args[0])
	}
	// Watermark asset is the second input so the overlay can reference 1:v.
	wantPrefix := []string{"-y", "-i", "/videos/in.mp4", "-i", "/marks/logo.png"}
	if !slices.Equal(args[:len(wantPrefix)], wantPrefix) {
		t.Fatalf("args prefix = %v", args[:len(wantPrefix)])
	}

	assertFlag := func(flag, value string) {
		t.Helper()
		idx := slices.Index(args, flag)
		if idx < 0 || idx+1 >= len(args) {
			t.Fatalf("missing %s in %v", flag, args)
		}
		if args[idx+1] != value {
			t.Fatalf("%s = %q, want %q", flag, args[idx+1], value)
		}
	}

	assertFlag("-filter_complex", graph.serialize())
	assertFlag("-t", "42.5")
	assertFlag("-af", "loudnorm=I=-16:LRA=11:TP=-1.5")
	assertFlag("-c:v", "libx264")
	assertFlag("-preset", "medium")
	assertFlag("-crf", "23")
	assertFlag("-b:v", "2M")
	assertFlag("-c:a", "aac")
	assertFlag("-b:a", "192k")
	assertFlag("-threads", "4")
	assertFlag("-movflags", "+faststart")

	// Video maps from the filter graph, audio from the original input.
	mapIdx := slices.Index(args, "-map")
	if mapIdx < 0 || args[mapIdx+1] != "["+graph.FinalLabel+"]" {
		t.Fatalf("first -map = %q, want filter graph output", args[mapIdx+1])
	}
	rest := args[mapIdx+2:]
	secondMap := slices.Index(rest, "-map")
	if secondMap < 0 || rest[secondMap+1] != "0:a?" {
		t.Fatalf("second -map missing or wrong: %v", rest)
	}

	if args[len(args)-1] != "/out/in_processed.mp4" {
		t.Fatalf("last arg = %q, want output path", args[len(args)-1])
	}
}

func TestAssembleArgsOmitsOptionalPieces(t *testing.T) {
	settings := identitySettings()
	settings.AudioNormalization = false

	graph := buildFilterGraph(settings, "", fixedRand{0.5})
	args := assembleArgs("/videos/in.mp4", "", "/out/out.mp4", graph, settings, nil)

	if slices.Contains(args, "-af") {
		t.Fatalf("loudnorm emitted with normalization disabled: %v", args)
	}
	if slices.Contains(args, "-t") {
		t.Fatalf("-t emitted with unknown duration: %v", args)
	}
	inputs := 0
	for _, arg := range args {
		if arg == "-i" {
			inputs++
		}
	}
	if inputs != 1 {
		t.Fatalf("input count = %d, want 1 without watermark", inputs)
	}
}

func TestDeriveOutputPathNaming(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	path := deriveOutputPath(dir, "/videos/clip_abc.webm", now)
	want := filepath.Join(dir, "clip_abc_processed_20260314_150926.mp4")
	if path != want {
		t.Fatalf("output path = %q, want %q", path, want)
	}
}

func TestDeriveOutputPathAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	first := deriveOutputPath(dir, "clip.mp4", now)
	if err := os.WriteFile(first, []byte("x"), 0o644); err != nil {
		t.Fatalf("write first output: %v", err)
	}

	second := deriveOutputPath(dir, "clip.mp4", now)
	if second == first {
		t.Fatalf("second derivation reused %q", first)
	}
	if !strings.HasSuffix(second, "_1.mp4") {
		t.Fatalf("second path = %q, want sequence suffix", second)
	}
}
