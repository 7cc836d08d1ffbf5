package domain

import "fmt"

// DownloadStats accumulates counters for one batch task. Counters only
// ever increase while the owning batch is running.
type DownloadStats struct {
	Total            int64 `json:"total"`
	Successful       int64 `json:"successful"`
	Failed           int64 `json:"failed"`
	Skipped          int64 `json:"skipped"`
	TotalBytes       int64 `json:"total_bytes"`
	TotalTimeSeconds int64 `json:"total_time_seconds"`
}

// ToMap encodes the stats as a flat key-value map. The encoding round
// trips losslessly through FromMap.
func (s *DownloadStats) ToMap() map[string]int64 {
	return map[string]int64{
		"total":              s.Total,
		"successful":         s.Successful,
		"failed":             s.Failed,
		"skipped":            s.Skipped,
		"total_bytes":        s.TotalBytes,
		"total_time_seconds": s.TotalTimeSeconds,
	}
}

// StatsFromMap decodes stats from a flat key-value map. Missing keys
// default to zero.
func StatsFromMap(data map[string]int64) *DownloadStats {
	return &DownloadStats{
		Total:            data["total"],
		Successful:       data["successful"],
		Failed:           data["failed"],
		Skipped:          data["skipped"],
		TotalBytes:       data["total_bytes"],
		TotalTimeSeconds: data["total_time_seconds"],
	}
}

// FormatBytes renders a byte count in binary units with two decimals.
func FormatBytes(count int64) string {
	value := float64(count)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if value < 1024 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.2f PB", value)
}

// Summary returns a human-readable recap of the accumulated stats.
func (s *DownloadStats) Summary() string {
	successRate := 0.0
	if s.Total > 0 {
		successRate = float64(s.Successful) / float64(s.Total) * 100
	}
	hours := s.TotalTimeSeconds / 3600
	minutes := (s.TotalTimeSeconds % 3600) / 60
	return fmt.Sprintf(
		"total: %d, successful: %d (%.1f%%), failed: %d, skipped: %d, downloaded: %s, elapsed: %dh%dm",
		s.Total, s.Successful, successRate, s.Failed, s.Skipped,
		FormatBytes(s.TotalBytes), hours, minutes)
}
