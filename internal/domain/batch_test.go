package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchSettings_Validate(t *testing.T) {
	dir := t.TempDir()
	settings := BatchSettings{DownloadPath: dir}

	err := settings.Validate()

	require.NoError(t, err)
	assert.Equal(t, "best", settings.Quality)
	assert.Equal(t, DefaultSubtitleLanguages, settings.SubtitleLang)
	assert.Equal(t, DefaultTrimFilenameLength, settings.TrimFilenameLength)
	assert.Equal(t, NormalizePath(dir), settings.DownloadPath)
}

func TestBatchSettings_ValidateMissingPath(t *testing.T) {
	settings := BatchSettings{}

	err := settings.Validate()

	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "download_path", cfgErr.Field)
}

func TestBatchSettings_ValidateNonexistentPath(t *testing.T) {
	settings := BatchSettings{DownloadPath: "/nonexistent/path/for/test"}

	err := settings.Validate()

	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestBatchSettings_CookieFileFor(t *testing.T) {
	settings := BatchSettings{
		UseCookies:         true,
		YouTubeCookieFile:  "/cookies/yt.txt",
		BilibiliCookieFile: "/cookies/bili.txt",
	}

	assert.Equal(t, "/cookies/yt.txt", settings.CookieFileFor(PlatformYouTube))
	assert.Equal(t, "/cookies/bili.txt", settings.CookieFileFor(PlatformBilibili))
	assert.Equal(t, "", settings.CookieFileFor(PlatformUnknown))

	settings.UseCookies = false
	assert.Equal(t, "", settings.CookieFileFor(PlatformYouTube))
}

func TestBatchSettings_ApplyDefaults(t *testing.T) {
	defaults := BatchSettings{
		DownloadPath:      "/downloads",
		Quality:           "1080p",
		YouTubeCookieFile: "/cookies/yt.txt",
		SubtitleLang:      "en",
		DownloadTimeout:   600,
	}
	settings := BatchSettings{Quality: "720p"}

	settings.ApplyDefaults(&defaults)

	assert.Equal(t, "/downloads", settings.DownloadPath)
	assert.Equal(t, "720p", settings.Quality) // explicit value wins
	assert.Equal(t, "/cookies/yt.txt", settings.YouTubeCookieFile)
	assert.Equal(t, "en", settings.SubtitleLang)
	assert.Equal(t, 600, settings.DownloadTimeout)
}

func TestNewBatchTask(t *testing.T) {
	urls := []string{"https://youtu.be/aaa111bbb22", "https://youtu.be/ccc333ddd44"}

	task := NewBatchTask(urls, BatchSettings{DownloadPath: "/tmp"})

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, BatchQueued, task.Status)
	assert.Equal(t, urls, task.URLList())
	assert.False(t, task.IsTerminal())
}

func TestBatchTask_URLListPreservesOrder(t *testing.T) {
	task := NewBatchTask([]string{"c", "a", "b"}, BatchSettings{})

	assert.Equal(t, []string{"c", "a", "b"}, task.URLList())
}

func TestBatchTask_Lifecycle(t *testing.T) {
	task := NewBatchTask([]string{"https://youtu.be/aaa111bbb22"}, BatchSettings{})

	task.MarkRunning()
	assert.Equal(t, BatchRunning, task.Status)
	assert.NotNil(t, task.StartedAt)

	task.MarkCompleted(false)
	assert.Equal(t, BatchCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)
	assert.True(t, task.IsTerminal())
}

func TestBatchTask_MarkCompletedStopped(t *testing.T) {
	task := NewBatchTask([]string{"https://youtu.be/aaa111bbb22"}, BatchSettings{})
	task.MarkRunning()

	task.MarkCompleted(true)

	assert.Equal(t, BatchStopped, task.Status)
	assert.True(t, task.IsTerminal())
}

func TestBatchTask_MarkFailed(t *testing.T) {
	task := NewBatchTask([]string{"https://youtu.be/aaa111bbb22"}, BatchSettings{})

	task.MarkFailed(errors.New("disk full"))

	assert.Equal(t, BatchFailed, task.Status)
	assert.Equal(t, "disk full", task.ErrorMessage)
}
