package infrastructure

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vidbatch-go/internal/domain"
)

func TestBuildJobArgs_Defaults(t *testing.T) {
	spec := &domain.DownloadJobSpec{
		Video:     domain.NewVideoReference("https://youtu.be/dQw4w9WgXcQ"),
		OutputDir: "/downloads",
	}

	args := BuildJobArgs(spec, "")

	assert.Equal(t, "-o", args[0])
	assert.Equal(t, filepath.Join("/downloads", "%(title)s.%(ext)s"), args[1])
	assert.Contains(t, args, "--no-playlist")
	assert.Contains(t, args, "--newline")
	assert.Contains(t, args, DefaultFormatSelector)
	assert.Equal(t, spec.Video.URL, args[len(args)-1])
	assert.NotContains(t, args, "--cookies")
	assert.NotContains(t, args, "--limit-rate")
}

func TestBuildJobArgs_RateLimitPrecedence(t *testing.T) {
	spec := &domain.DownloadJobSpec{
		Video:     domain.NewVideoReference("https://youtu.be/dQw4w9WgXcQ"),
		OutputDir: "/downloads",
		RateLimit: "1M",
	}

	args := BuildJobArgs(spec, "500K")

	idx := indexOf(args, "--limit-rate")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "500K", args[idx+1])
}

func TestBuildJobArgs_MissingCookieFileOmitted(t *testing.T) {
	spec := &domain.DownloadJobSpec{
		Video:      domain.NewVideoReference("https://youtu.be/dQw4w9WgXcQ"),
		OutputDir:  "/downloads",
		CookieFile: "/nonexistent/cookies.txt",
	}

	args := BuildJobArgs(spec, "")

	assert.NotContains(t, args, "--cookies")
}

func TestBuildJobArgs_CookieFilePresent(t *testing.T) {
	cookieFile := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(cookieFile, []byte("# Netscape HTTP Cookie File\n"), 0644))
	spec := &domain.DownloadJobSpec{
		Video:      domain.NewVideoReference("https://youtu.be/dQw4w9WgXcQ"),
		OutputDir:  "/downloads",
		CookieFile: cookieFile,
	}

	args := BuildJobArgs(spec, "")

	idx := indexOf(args, "--cookies")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, cookieFile, args[idx+1])
}

func TestBuildJobArgs_BilibiliHeaders(t *testing.T) {
	spec := &domain.DownloadJobSpec{
		Video:     domain.NewVideoReference("https://www.bilibili.com/video/BV1xx411c7mD"),
		OutputDir: "/downloads",
	}

	args := BuildJobArgs(spec, "")

	idx := indexOf(args, "--referer")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "https://www.bilibili.com", args[idx+1])
	assert.Contains(t, args, "--add-header")
}

func TestBuildJobArgs_Subtitles(t *testing.T) {
	spec := &domain.DownloadJobSpec{
		Video:        domain.NewVideoReference("https://youtu.be/dQw4w9WgXcQ"),
		OutputDir:    "/downloads",
		IncludeSubs:  true,
		SubtitleLang: "en",
	}

	args := BuildJobArgs(spec, "")

	assert.Contains(t, args, "--write-subs")
	assert.Contains(t, args, "--write-auto-subs")
	assert.Contains(t, args, "--embed-subs")
	idx := indexOf(args, "--convert-subs")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "srt", args[idx+1])
}

func TestBuildBatchArgs_DefaultTemplate(t *testing.T) {
	settings := &domain.BatchSettings{DownloadPath: "/downloads", Quality: "best"}

	args := BuildBatchArgs("https://youtu.be/dQw4w9WgXcQ", domain.PlatformYouTube, settings)

	idx := indexOf(args, "-o")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, filepath.Join("/downloads", domain.DefaultFilenameTemplate+".%(ext)s"), args[idx+1])
	assert.Contains(t, args, "--ignore-errors")
	assert.Contains(t, args, "--no-warnings")
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", args[len(args)-1])
}

func TestBuildBatchArgs_CustomTemplateKeepsExtension(t *testing.T) {
	settings := &domain.BatchSettings{
		DownloadPath:           "/downloads",
		UseCustomFilename:      true,
		CustomFilenameTemplate: "%(title)s.%(ext)s",
	}

	args := BuildBatchArgs("https://youtu.be/dQw4w9WgXcQ", domain.PlatformYouTube, settings)

	idx := indexOf(args, "-o")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, filepath.Join("/downloads", "%(title)s.%(ext)s"), args[idx+1])
	assert.False(t, strings.HasSuffix(args[idx+1], ".%(ext)s.%(ext)s"))
}

func TestBuildBatchArgs_SubtitleOnly(t *testing.T) {
	settings := &domain.BatchSettings{
		DownloadPath:     "/downloads",
		DownloadSubtitle: true,
		SubtitleOnly:     true,
		SubtitleLang:     "zh-TW,zh,en",
	}

	args := BuildBatchArgs("https://youtu.be/dQw4w9WgXcQ", domain.PlatformYouTube, settings)

	assert.Contains(t, args, "--write-subs")
	assert.Contains(t, args, "--skip-download")
	assert.NotContains(t, args, "--embed-subs")
}

func TestBuildBatchArgs_TrimFilenames(t *testing.T) {
	settings := &domain.BatchSettings{
		DownloadPath:       "/downloads",
		AutoTrimFilename:   true,
		TrimFilenameLength: 80,
	}

	args := BuildBatchArgs("https://youtu.be/dQw4w9WgXcQ", domain.PlatformYouTube, settings)

	idx := indexOf(args, "--trim-filenames")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "80", args[idx+1])
}

func TestBuildBatchArgs_BilibiliUserAgent(t *testing.T) {
	settings := &domain.BatchSettings{DownloadPath: "/downloads"}

	args := BuildBatchArgs("https://www.bilibili.com/video/BV1xx411c7mD", domain.PlatformBilibili, settings)

	assert.Contains(t, args, "--referer")
	assert.Contains(t, args, "--user-agent")
}

func TestFormatForQuality(t *testing.T) {
	tests := []struct {
		quality  string
		expected string
	}{
		{"", "bestvideo+bestaudio/best"},
		{"best", "bestvideo+bestaudio/best"},
		{"worst", "worstvideo+worstaudio/worst"},
		{"1080p", "bestvideo[height<=1080]+bestaudio/best[height<=1080]"},
		{"720P", "bestvideo[height<=720]+bestaudio/best[height<=720]"},
		{"bestaudio/best", "bestaudio/best"}, // raw selector passes through
	}

	for _, tt := range tests {
		t.Run(tt.quality, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatForQuality(tt.quality))
		})
	}
}

func TestBuildPlaylistFetchArgs(t *testing.T) {
	args := BuildPlaylistFetchArgs("https://www.youtube.com/playlist?list=PLabc")

	assert.Equal(t, []string{"-J", "--flat-playlist", "https://www.youtube.com/playlist?list=PLabc"}, args)
}

func indexOf(args []string, flag string) int {
	for i, a := range args {
		if a == flag {
			return i
		}
	}
	return -1
}
