package infrastructure

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yourusername/vidbatch-go/internal/domain"
)

const (
	// DefaultFormatSelector is used by single-item jobs when no explicit
	// format is requested.
	DefaultFormatSelector = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

	bilibiliReferer   = "https://www.bilibili.com"
	bilibiliUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// BuildJobArgs constructs the downloader argument list for a
// single-item download job. A configured cookie file that is missing on
// disk is silently omitted rather than treated as an error.
func BuildJobArgs(spec *domain.DownloadJobSpec, rateLimit string) []string {
	args := []string{
		"-o", filepath.Join(spec.OutputDir, "%(title)s.%(ext)s"),
		"--no-playlist",
		"--progress",
		"--newline",
	}

	if rateLimit != "" {
		args = append(args, "--limit-rate", rateLimit)
	} else if spec.RateLimit != "" {
		args = append(args, "--limit-rate", spec.RateLimit)
	}

	if spec.CookieFile != "" && fileExists(spec.CookieFile) {
		args = append(args, "--cookies", spec.CookieFile)
	}

	if spec.Video.Platform == domain.PlatformBilibili {
		args = append(args, "--referer", bilibiliReferer, "--add-header", "Origin:"+bilibiliReferer)
	}

	if spec.Format != "" {
		args = append(args, "-f", spec.Format)
	} else {
		args = append(args, "-f", DefaultFormatSelector)
	}

	if spec.IncludeSubs {
		args = append(args,
			"--write-subs",
			"--write-auto-subs",
			"--sub-langs", spec.SubtitleLang,
			"--embed-subs",
			"--convert-subs", "srt",
		)
	}

	args = append(args, spec.Video.URL)
	return args
}

// BuildBatchArgs constructs the downloader argument list for one batch
// item. Unlike the single-job builder it supports custom filename
// templates, subtitle-only mode, filename trimming and the full quality
// mapping.
func BuildBatchArgs(url string, platform domain.Platform, settings *domain.BatchSettings) []string {
	var args []string

	if cookieFile := settings.CookieFileFor(platform); cookieFile != "" && fileExists(cookieFile) {
		args = append(args, "--cookies", cookieFile)
	}

	if settings.DownloadPath != "" {
		template := ""
		if settings.UseCustomFilename {
			template = strings.TrimSpace(settings.CustomFilenameTemplate)
		}
		if template == "" {
			template = domain.DefaultFilenameTemplate
		}
		if !strings.Contains(template, "%(ext") {
			template += ".%(ext)s"
		}
		args = append(args, "-o", filepath.Join(settings.DownloadPath, template))
	}

	args = append(args, "-f", formatForQuality(settings.Quality))

	if settings.DownloadSubtitle {
		args = append(args, "--write-subs")
		if settings.AutoSubtitle {
			args = append(args, "--write-auto-subs")
		}
		args = append(args, "--sub-langs", settings.SubtitleLang)
		if !settings.SubtitleOnly {
			args = append(args, "--embed-subs")
		}
	}

	if settings.SubtitleOnly {
		args = append(args, "--skip-download")
	}

	if settings.AutoTrimFilename {
		args = append(args, "--trim-filenames", strconv.Itoa(settings.TrimFilenameLength))
	}

	args = append(args, "--no-warnings", "--ignore-errors", "--retries", "3", "--fragment-retries", "10")

	if platform == domain.PlatformBilibili {
		args = append(args, "--referer", bilibiliReferer, "--user-agent", bilibiliUserAgent)
	}

	args = append(args, url)
	return args
}

// BuildPlaylistFetchArgs constructs the argument list for a flat
// playlist metadata fetch (JSON on stdout, no media download).
func BuildPlaylistFetchArgs(playlistURL string) []string {
	return []string{"-J", "--flat-playlist", playlistURL}
}

// formatForQuality maps a quality preset to a yt-dlp format selector.
// Unrecognized values pass through as raw selectors.
func formatForQuality(quality string) string {
	quality = strings.ToLower(strings.TrimSpace(quality))
	switch quality {
	case "", "best":
		return "bestvideo+bestaudio/best"
	case "worst":
		return "worstvideo+worstaudio/worst"
	}
	if height, ok := domain.QualityCaps[quality]; ok {
		h := strconv.Itoa(height)
		return "bestvideo[height<=" + h + "]+bestaudio/best[height<=" + h + "]"
	}
	return quality
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
