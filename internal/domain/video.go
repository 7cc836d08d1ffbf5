package domain

import (
	"regexp"
	"strings"
)

// Platform represents the source platform for a video URL
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformBilibili Platform = "bilibili"
	PlatformUnknown  Platform = "unknown"
)

// VideoReference identifies a video by URL, platform and extracted ID.
// The ID is derived deterministically from the URL and never changes.
type VideoReference struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
	ID       string   `json:"id"`
}

// Precompiled URL patterns. First match wins per platform.
var (
	youtubeVideoIDPattern  = regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{6,})`)
	youtubeShortURLPattern = regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{6,})`)
	youtubeShortsPattern   = regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{6,})`)
	youtubeEmbedPattern    = regexp.MustCompile(`/embed/([A-Za-z0-9_-]{6,})`)
	youtubeLivePattern     = regexp.MustCompile(`/live/([A-Za-z0-9_-]{6,})`)
	youtubePlaylistPattern = regexp.MustCompile(`[?&]list=([A-Za-z0-9_-]+)`)
	bilibiliBVPattern      = regexp.MustCompile(`/video/(BV[0-9A-Za-z]{10})`)
	bilibiliAVPattern      = regexp.MustCompile(`/video/(av\d+)`)
	bilibiliVideoPattern   = regexp.MustCompile(`bilibili\.com/video/(\w+)`)
)

var youtubeIDPatterns = []*regexp.Regexp{
	youtubeVideoIDPattern,
	youtubeShortURLPattern,
	youtubeShortsPattern,
	youtubeEmbedPattern,
	youtubeLivePattern,
	youtubePlaylistPattern,
}

var bilibiliIDPatterns = []*regexp.Regexp{
	bilibiliBVPattern,
	bilibiliAVPattern,
	bilibiliVideoPattern,
}

// DetectPlatform classifies a URL by platform using case-insensitive
// substring matching. It never fails; unrecognized or empty input maps
// to PlatformUnknown.
func DetectPlatform(url string) Platform {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be"):
		return PlatformYouTube
	case strings.Contains(lower, "bilibili.com") || strings.Contains(lower, "b23.tv"):
		return PlatformBilibili
	default:
		return PlatformUnknown
	}
}

// ExtractVideoID derives a stable video identifier from a URL.
// Bilibili IDs are prefixed with "bili_" to namespace them from YouTube
// IDs. When no pattern matches, the trimmed URL itself serves as a
// unique-enough fallback key.
func ExtractVideoID(url string) string {
	switch DetectPlatform(url) {
	case PlatformYouTube:
		for _, pattern := range youtubeIDPatterns {
			if m := pattern.FindStringSubmatch(url); m != nil {
				return m[1]
			}
		}
	case PlatformBilibili:
		for _, pattern := range bilibiliIDPatterns {
			if m := pattern.FindStringSubmatch(url); m != nil {
				return "bili_" + m[1]
			}
		}
	}
	return strings.TrimSpace(url)
}

// ExtractPlaylistID extracts the playlist identifier from a URL, falling
// back to the trimmed URL when no list parameter is present.
func ExtractPlaylistID(url string) string {
	if m := youtubePlaylistPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return strings.TrimSpace(url)
}

// NewVideoReference builds a VideoReference from a raw URL.
func NewVideoReference(url string) VideoReference {
	return VideoReference{
		URL:      url,
		Platform: DetectPlatform(url),
		ID:       ExtractVideoID(url),
	}
}
