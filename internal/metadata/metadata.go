// Package metadata generates upload metadata for processed clips from the
// source clip info and channel configuration.
package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clipforge/internal/config"
)

// maxTagsLength caps the combined tag characters accepted at upload time.
const maxTagsLength = 500

// Source describes the clip a download produced, as reported by yt-dlp.
type Source struct {
	Title    string
	Uploader string
	URL      string
	Tags     []string
}

// Video is the upload metadata persisted on a queue item once the clip is
// ready for publishing.
type Video struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	PrivacyStatus string   `json:"privacy_status"`
	Channel       string   `json:"channel,omitempty"`
}

var titleCaser = cases.Title(language.English)

// Generate builds upload metadata for a clip destined for the named channel.
func Generate(cfg *config.Config, channelID string, src Source) Video {
	channelName := channelID
	if channel, ok := cfg.Channels[channelID]; ok && channel.Name != "" {
		channelName = channel.Name
	}
	tags := buildTags(cfg.Metadata.DefaultTags, src.Tags)
	return Video{
		Title:         buildTitle(cfg.Metadata, src.Title),
		Description:   buildDescription(cfg.Metadata, src, tags),
		Tags:          tags,
		PrivacyStatus: cfg.Metadata.PrivacyStatus,
		Channel:       channelName,
	}
}

// Encode serializes metadata for queue persistence.
func (v Video) Encode() (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

// Decode restores metadata previously stored on a queue item.
func Decode(raw string) (Video, error) {
	var v Video
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Video{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return v, nil
}

// buildTitle cleans and title-cases the source title, then appends the
// configured suffix while honoring the length limit. The suffix always
// survives truncation; the base title gives way.
func buildTitle(cfg config.Metadata, raw string) string {
	base := cleanTitle(raw)
	if base == "" {
		base = "Untitled Clip"
	}
	base = titleCaser.String(base)

	suffix := strings.TrimSpace(cfg.TitleSuffix)
	limit := cfg.MaxTitleLength
	if limit <= 0 {
		limit = 100
	}

	if suffix == "" || strings.Contains(base, suffix) {
		return truncate(base, limit)
	}

	budget := limit - utf8.RuneCountInString(suffix) - 1
	if budget < 1 {
		return truncate(suffix, limit)
	}
	return truncate(base, budget) + " " + suffix
}

// cleanTitle strips inline hashtags and collapses whitespace. Source titles
// routinely arrive packed with tag spam that has no place in the upload title.
func cleanTitle(raw string) string {
	fields := strings.Fields(raw)
	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		if strings.HasPrefix(field, "#") || strings.HasPrefix(field, "@") {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

func truncate(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return strings.TrimSpace(string(runes[:limit]))
}

func buildDescription(cfg config.Metadata, src Source, tags []string) string {
	var b strings.Builder

	if cfg.AttributeSrc {
		if src.Uploader != "" {
			fmt.Fprintf(&b, "Credit: %s\n", src.Uploader)
		}
		if src.URL != "" {
			fmt.Fprintf(&b, "Source: %s\n", src.URL)
		}
	}

	if len(tags) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		hashtags := make([]string, 0, len(tags))
		for _, tag := range tags {
			hashtags = append(hashtags, "#"+strings.ReplaceAll(tag, " ", ""))
		}
		b.WriteString(strings.Join(hashtags, " "))
	}

	return strings.TrimSpace(b.String())
}

// buildTags merges channel defaults with source tags, dropping duplicates
// case-insensitively and stopping before the combined length exceeds the
// upload limit. Defaults win the ordering so channel branding stays first.
func buildTags(defaults, source []string) []string {
	seen := make(map[string]struct{})
	var tags []string
	total := 0

	for _, tag := range append(append([]string{}, defaults...), source...) {
		cleaned := strings.TrimSpace(strings.TrimPrefix(tag, "#"))
		if cleaned == "" {
			continue
		}
		key := strings.ToLower(cleaned)
		if _, dup := seen[key]; dup {
			continue
		}
		length := utf8.RuneCountInString(cleaned)
		if total+length > maxTagsLength {
			break
		}
		seen[key] = struct{}{}
		tags = append(tags, cleaned)
		total += length
	}
	return tags
}
