package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", PlatformYouTube},
		{"https://YOUTU.BE/dQw4w9WgXcQ", PlatformYouTube},
		{"https://music.youtube.com/watch?v=abc123def45", PlatformYouTube},
		{"https://www.bilibili.com/video/BV1xx411c7mD", PlatformBilibili},
		{"https://b23.tv/abc123", PlatformBilibili},
		{"https://vimeo.com/12345", PlatformUnknown},
		{"", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestExtractVideoID_YouTube(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url with extra params", "https://www.youtube.com/watch?t=42&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts url", "https://www.youtube.com/shorts/abcDEF12345", "abcDEF12345"},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"live url", "https://www.youtube.com/live/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"playlist url without video", "https://www.youtube.com/playlist?list=PLabc123", "PLabc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractVideoID(tt.url))
		})
	}
}

func TestExtractVideoID_Bilibili(t *testing.T) {
	assert.Equal(t, "bili_BV1xx411c7mD", ExtractVideoID("https://www.bilibili.com/video/BV1xx411c7mD"))
	assert.Equal(t, "bili_av170001", ExtractVideoID("https://www.bilibili.com/video/av170001"))
}

func TestExtractVideoID_FallbackToURL(t *testing.T) {
	// Unrecognized URLs key on themselves so dedup still works.
	url := "https://example.com/some/video"
	assert.Equal(t, url, ExtractVideoID(url))
	assert.Equal(t, url, ExtractVideoID("  "+url+"  "))
}

func TestExtractPlaylistID(t *testing.T) {
	assert.Equal(t, "PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG",
		ExtractPlaylistID("https://www.youtube.com/playlist?list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG"))
	assert.Equal(t, "PLabc",
		ExtractPlaylistID("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc"))
	assert.Equal(t, "https://example.com/feed",
		ExtractPlaylistID("https://example.com/feed"))
}

func TestNewVideoReference(t *testing.T) {
	ref := NewVideoReference("https://youtu.be/dQw4w9WgXcQ")

	assert.Equal(t, PlatformYouTube, ref.Platform)
	assert.Equal(t, "dQw4w9WgXcQ", ref.ID)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", ref.URL)
}
