package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BatchStatus represents the lifecycle state of a batch task
type BatchStatus string

const (
	BatchQueued    BatchStatus = "queued"
	BatchRunning   BatchStatus = "running"
	BatchPaused    BatchStatus = "paused"
	BatchCompleted BatchStatus = "completed"
	BatchStopped   BatchStatus = "stopped"
	BatchFailed    BatchStatus = "failed"
)

// QualityCaps maps quality presets to their maximum video height.
var QualityCaps = map[string]int{
	"4320p": 4320,
	"2160p": 2160,
	"1440p": 1440,
	"1080p": 1080,
	"720p":  720,
	"480p":  480,
	"360p":  360,
	"240p":  240,
}

// Defaults applied by BatchSettings.Validate.
const (
	DefaultSubtitleLanguages      = "zh-TW,zh,en"
	DefaultFilenameTemplate       = "%(uploader)s - %(title)s [%(id)s]"
	DefaultTrimFilenameLength     = 120
	DefaultDownloadTimeoutSeconds = 10800
)

// BatchSettings is the typed configuration for one batch task. It
// replaces the loose settings map the downloader historically used;
// validation happens once, at batch construction, not at point of use.
type BatchSettings struct {
	DownloadPath           string `json:"download_path" mapstructure:"download_path"`
	Quality                string `json:"quality" mapstructure:"quality"`
	UseCookies             bool   `json:"use_cookies" mapstructure:"use_cookies"`
	YouTubeCookieFile      string `json:"youtube_cookie_file" mapstructure:"youtube_cookie_file"`
	BilibiliCookieFile     string `json:"bilibili_cookie_file" mapstructure:"bilibili_cookie_file"`
	DownloadSubtitle       bool   `json:"download_subtitle" mapstructure:"download_subtitle"`
	AutoSubtitle           bool   `json:"auto_subtitle" mapstructure:"auto_subtitle"`
	SubtitleOnly           bool   `json:"subtitle_only" mapstructure:"subtitle_only"`
	SubtitleLang           string `json:"subtitle_lang" mapstructure:"subtitle_lang"`
	UseCustomFilename      bool   `json:"use_custom_filename" mapstructure:"use_custom_filename"`
	CustomFilenameTemplate string `json:"custom_filename_template" mapstructure:"custom_filename_template"`
	AutoTrimFilename       bool   `json:"auto_trim_filename" mapstructure:"auto_trim_filename"`
	TrimFilenameLength     int    `json:"trim_filename_length" mapstructure:"trim_filename_length"`
	DownloadTimeout        int    `json:"download_timeout" mapstructure:"download_timeout"` // seconds, 0 = unbounded
}

// CookieFileFor returns the configured cookie file for a platform, or
// an empty string when cookies are disabled or unconfigured.
func (s *BatchSettings) CookieFileFor(platform Platform) string {
	if !s.UseCookies {
		return ""
	}
	switch platform {
	case PlatformYouTube:
		return s.YouTubeCookieFile
	case PlatformBilibili:
		return s.BilibiliCookieFile
	}
	return ""
}

// ApplyDefaults fills unset fields from a configured defaults block.
// Boolean flags are taken as-is from the incoming settings.
func (s *BatchSettings) ApplyDefaults(defaults *BatchSettings) {
	if defaults == nil {
		return
	}
	if strings.TrimSpace(s.DownloadPath) == "" {
		s.DownloadPath = defaults.DownloadPath
	}
	if s.Quality == "" {
		s.Quality = defaults.Quality
	}
	if s.YouTubeCookieFile == "" {
		s.YouTubeCookieFile = defaults.YouTubeCookieFile
	}
	if s.BilibiliCookieFile == "" {
		s.BilibiliCookieFile = defaults.BilibiliCookieFile
	}
	if s.SubtitleLang == "" {
		s.SubtitleLang = defaults.SubtitleLang
	}
	if s.CustomFilenameTemplate == "" {
		s.CustomFilenameTemplate = defaults.CustomFilenameTemplate
	}
	if s.TrimFilenameLength == 0 {
		s.TrimFilenameLength = defaults.TrimFilenameLength
	}
	if s.DownloadTimeout == 0 {
		s.DownloadTimeout = defaults.DownloadTimeout
	}
}

// Validate normalizes the download path, applies defaults, and rejects
// settings that cannot produce a runnable batch.
func (s *BatchSettings) Validate() error {
	if strings.TrimSpace(s.DownloadPath) == "" {
		return &ConfigurationError{Field: "download_path", Reason: "not set"}
	}
	normalized := NormalizePath(s.DownloadPath)
	info, err := os.Stat(normalized)
	if err != nil || !info.IsDir() {
		return &ConfigurationError{Field: "download_path", Reason: fmt.Sprintf("not a directory: %s", s.DownloadPath)}
	}
	s.DownloadPath = normalized

	if s.Quality == "" {
		s.Quality = "best"
	}
	if s.SubtitleLang == "" {
		s.SubtitleLang = DefaultSubtitleLanguages
	}
	if s.TrimFilenameLength <= 0 {
		s.TrimFilenameLength = DefaultTrimFilenameLength
	}
	if s.DownloadTimeout < 0 {
		return &ConfigurationError{Field: "download_timeout", Reason: "cannot be negative"}
	}
	return nil
}

// NormalizePath produces the canonical form used as a key into the
// ledger and snapshot maps.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// BatchTask is a persisted record of one batch download run.
type BatchTask struct {
	ID           string        `json:"id" gorm:"primaryKey"`
	URLs         string        `json:"urls" gorm:"type:text;not null"` // newline-separated, preserves submission order
	Status       BatchStatus   `json:"status" gorm:"not null;index"`
	Settings     BatchSettings `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`
	Stats        DownloadStats `json:"stats" gorm:"embedded;embeddedPrefix:stats_"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// NewBatchTask creates a queued batch task over an ordered URL list.
// Settings must already be validated.
func NewBatchTask(urls []string, settings BatchSettings) *BatchTask {
	return &BatchTask{
		ID:       uuid.New().String(),
		URLs:     strings.Join(urls, "\n"),
		Status:   BatchQueued,
		Settings: settings,
	}
}

// URLList returns the submission-ordered URLs of the task.
func (t *BatchTask) URLList() []string {
	if t.URLs == "" {
		return nil
	}
	var urls []string
	for _, line := range strings.Split(t.URLs, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}

// MarkRunning marks the task as running
func (t *BatchTask) MarkRunning() {
	t.Status = BatchRunning
	now := time.Now()
	t.StartedAt = &now
	t.UpdatedAt = now
}

// MarkCompleted marks the task as finished, normally or after a stop.
func (t *BatchTask) MarkCompleted(stopped bool) {
	if stopped {
		t.Status = BatchStopped
	} else {
		t.Status = BatchCompleted
	}
	now := time.Now()
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// MarkFailed marks the task as failed with a cause
func (t *BatchTask) MarkFailed(err error) {
	t.Status = BatchFailed
	t.ErrorMessage = err.Error()
	now := time.Now()
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// IsTerminal reports whether the task reached a final state
func (t *BatchTask) IsTerminal() bool {
	return t.Status == BatchCompleted || t.Status == BatchStopped || t.Status == BatchFailed
}
