package metadata

import (
	"strings"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/testsupport"
)

func TestGenerateTitleCasedWithSuffix(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	video := Generate(cfg, "", Source{Title: "my amazing trick shot #fyp @someone"})
	if video.Title != "My Amazing Trick Shot #Shorts" {
		t.Fatalf("title = %q", video.Title)
	}
}

func TestGenerateTitleTruncatesToLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Metadata.MaxTitleLength = 30

	video := Generate(cfg, "", Source{Title: strings.Repeat("word ", 20)})
	if got := len([]rune(video.Title)); got > 30 {
		t.Fatalf("title length = %d, want <= 30 (%q)", got, video.Title)
	}
	if !strings.HasSuffix(video.Title, "#Shorts") {
		t.Fatalf("suffix lost in truncation: %q", video.Title)
	}
}

func TestGenerateEmptyTitleFallsBack(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	video := Generate(cfg, "", Source{Title: "#only #tags"})
	if !strings.HasPrefix(video.Title, "Untitled Clip") {
		t.Fatalf("title = %q", video.Title)
	}
}

func TestGenerateDescriptionAttribution(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Metadata.DefaultTags = []string{"shorts"}

	video := Generate(cfg, "", Source{
		Title:    "a clip",
		Uploader: "creator",
		URL:      "https://example.com/clip/1",
		Tags:     []string{"fun"},
	})
	if !strings.Contains(video.Description, "Credit: creator") {
		t.Fatalf("missing attribution: %q", video.Description)
	}
	if !strings.Contains(video.Description, "https://example.com/clip/1") {
		t.Fatalf("missing source url: %q", video.Description)
	}
	if !strings.Contains(video.Description, "#shorts") || !strings.Contains(video.Description, "#fun") {
		t.Fatalf("missing hashtag block: %q", video.Description)
	}
}

func TestGenerateDescriptionWithoutAttribution(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Metadata.AttributeSrc = false

	video := Generate(cfg, "", Source{Title: "a clip", Uploader: "creator", URL: "https://example.com"})
	if strings.Contains(video.Description, "creator") {
		t.Fatalf("unexpected attribution: %q", video.Description)
	}
}

func TestBuildTagsDedupesAndCaps(t *testing.T) {
	tags := buildTags([]string{"Shorts", "fun"}, []string{"FUN", "#shorts", "dance"})
	want := []string{"Shorts", "fun", "dance"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("tags = %v, want %v", tags, want)
		}
	}

	long := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		long = append(long, strings.Repeat("x", 9)+string(rune('a'+i%26))+strings.Repeat("y", i/26))
	}
	capped := buildTags(nil, long)
	total := 0
	for _, tag := range capped {
		total += len([]rune(tag))
	}
	if total > 500 {
		t.Fatalf("combined tag length = %d, want <= 500", total)
	}
	if len(capped) == len(long) {
		t.Fatal("expected tag list to be capped")
	}
}

func TestGenerateUsesChannelName(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithChannel("main", config.Channel{Name: "Main Channel"}))

	video := Generate(cfg, "main", Source{Title: "a clip"})
	if video.Channel != "Main Channel" {
		t.Fatalf("channel = %q", video.Channel)
	}
	if video.PrivacyStatus != "private" {
		t.Fatalf("privacy = %q", video.PrivacyStatus)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	video := Generate(cfg, "", Source{Title: "round trip", Tags: []string{"a", "b"}})
	raw, err := video.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Title != video.Title || len(decoded.Tags) != len(video.Tags) {
		t.Fatalf("round trip mismatch: %#v vs %#v", decoded, video)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("{not json"); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
