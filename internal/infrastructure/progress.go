package infrastructure

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/vidbatch-go/internal/domain"
)

// Precompiled patterns for yt-dlp progress output. Each field has its
// own expression; the absence of one never blocks extraction of the
// others.
var (
	progressPercentPattern = regexp.MustCompile(`(\d+\.\d+)%`)
	progressSizePattern    = regexp.MustCompile(`of\s+([\d.]+\s*[KMGT]?i?B)`)
	progressSpeedPattern   = regexp.MustCompile(`at\s+([\d.]+\s*[KMGT]?i?B/s)`)
	progressETAPattern     = regexp.MustCompile(`ETA\s+(\d+:\d+)`)
)

// Markers in the output stream that prove at least one file was fully
// downloaded or merged, even when the process later exits non-zero
// (e.g. a playlist with some upstream-deleted entries). Empirically
// tuned; see SuccessEvidence.
var (
	downloadStageEvidence = []string{"has already been downloaded", "100%"}
	mergeStageEvidence    = []string{"[Merger]", "Deleting original file"}
)

// ParseProgressLine extracts a ProgressEvent from one line of process
// output. Lines without progress markers yield an empty event, not an
// error.
func ParseProgressLine(line string) domain.ProgressEvent {
	var event domain.ProgressEvent
	if m := progressPercentPattern.FindStringSubmatch(line); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			event.Percent = pct
			event.HasPct = true
		}
	}
	if m := progressSizePattern.FindStringSubmatch(line); m != nil {
		event.Size = m[1]
	}
	if m := progressSpeedPattern.FindStringSubmatch(line); m != nil {
		event.Speed = m[1]
	}
	if m := progressETAPattern.FindStringSubmatch(line); m != nil {
		event.ETA = m[1]
	}
	return event
}

// FormatProgress renders an event as a compact single-line status, or
// an empty string for an empty event. Callers deduplicate against the
// previously emitted string to avoid flooding listeners.
func FormatProgress(event domain.ProgressEvent) string {
	var parts []string
	if event.HasPct {
		parts = append(parts, strconv.FormatFloat(event.Percent, 'f', 1, 64)+"%")
	}
	if event.Size != "" {
		parts = append(parts, event.Size)
	}
	if event.Speed != "" {
		parts = append(parts, event.Speed)
	}
	if event.ETA != "" {
		parts = append(parts, event.ETA)
	}
	return strings.Join(parts, " | ")
}

// ClassifyLine sorts a line of downloader output into progress, log or
// noise.
func ClassifyLine(line string) domain.LineKind {
	switch {
	case strings.Contains(line, "[download]"):
		return domain.LineProgress
	case strings.Contains(line, "ERROR") || strings.Contains(line, "WARNING"):
		return domain.LineLog
	default:
		return domain.LineNoise
	}
}

// SuccessEvidence reports whether a line proves that a file completed,
// used to relax the exit-code success check for partially failed
// playlists. Download-stage markers only count on download lines;
// merge-stage markers count anywhere.
func SuccessEvidence(line string) bool {
	if strings.Contains(line, "[download]") {
		for _, marker := range downloadStageEvidence {
			if strings.Contains(line, marker) {
				return true
			}
		}
	}
	for _, marker := range mergeStageEvidence {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
