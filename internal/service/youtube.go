package service

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	youtubeThumbnailFormat = "https://img.youtube.com/vi/%s/hqdefault.jpg"
	youtubeEmbedPrefix     = "https://www.youtube.com/embed/"
)

// extractYouTubeID returns the video id from youtu.be/<id>, the v query parameter and
// /embed/<id> forms, checked in that order, or "" when none applies.
func extractYouTubeID(raw string) string {
	if raw == "" {
		return ""
	}
	if _, rest, ok := strings.Cut(raw, "youtu.be/"); ok {
		id, _, _ := strings.Cut(rest, "?")
		return id
	}
	if u, err := url.Parse(raw); err == nil {
		if id := u.Query().Get("v"); id != "" {
			return id
		}
	}
	if _, rest, ok := strings.Cut(raw, "/embed/"); ok {
		id, _, _ := strings.Cut(rest, "?")
		return id
	}
	return ""
}

// youtubeThumbnailURL falls back to the raw URL when no id can be derived.
func youtubeThumbnailURL(raw string) string {
	if id := extractYouTubeID(raw); id != "" {
		return fmt.Sprintf(youtubeThumbnailFormat, id)
	}
	return raw
}

// youtubeEmbedURL falls back to the raw URL when no id can be derived.
func youtubeEmbedURL(raw string) string {
	if id := extractYouTubeID(raw); id != "" {
		return youtubeEmbedPrefix + id
	}
	return raw
}
