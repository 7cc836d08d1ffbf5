package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidbatch-go/internal/domain"
	"github.com/yourusername/vidbatch-go/internal/infrastructure"
)

// SyncOutcome labels the result of one playlist update check.
type SyncOutcome string

const (
	SyncNoChange SyncOutcome = "no-change"
	SyncProceed  SyncOutcome = "proceed"
	SyncManual   SyncOutcome = "manual"
	SyncCancel   SyncOutcome = "cancel"
	SyncError    SyncOutcome = "error"
)

// SyncReport describes what a playlist check found and did.
type SyncReport struct {
	PlaylistURL    string      `json:"playlist_url"`
	PlaylistID     string      `json:"playlist_id"`
	PlaylistTitle  string      `json:"playlist_title,omitempty"`
	Outcome        SyncOutcome `json:"outcome"`
	Added          []string    `json:"added,omitempty"`
	RemovedRemote  []string    `json:"removed_from_remote,omitempty"`
	MissingLocally []string    `json:"missing_locally,omitempty"`
	TaskID         string      `json:"task_id,omitempty"` // batch triggered for the changes, if any
	Error          string      `json:"error,omitempty"`
}

// HasChanges reports whether the check found anything to download.
func (r *SyncReport) HasChanges() bool {
	return len(r.Added) > 0 || len(r.MissingLocally) > 0
}

// ConfirmFunc gates the download of changed items. The snapshot itself
// is persisted either way; only the batch trigger is conditional.
// Returning SyncManual records changes without downloading.
type ConfirmFunc func(report *SyncReport) SyncOutcome

// PlaylistFetcher lists the current members of a remote playlist.
type PlaylistFetcher interface {
	Fetch(ctx context.Context, playlistURL string) (*infrastructure.PlaylistMetadata, error)
}

// Titles assigned upstream to entries that can never be fetched.
var unavailableTitles = map[string]struct{}{
	"[deleted video]": {},
	"[private video]": {},
}

// SyncEngine compares a playlist's current membership against its last
// persisted snapshot and reconciles the local download state: stale
// ledger entries for locally missing files are evicted, and new or
// missing items can be handed to the batch manager for download.
type SyncEngine struct {
	cfg       *domain.DownloadConfig
	fetcher   PlaylistFetcher
	snapshots domain.SnapshotStore
	ledger    domain.LedgerStore
	batches   *BatchManager
	logger    *zap.Logger
}

// NewSyncEngine wires an engine. batches may be nil when the caller
// only wants detection without download triggering.
func NewSyncEngine(cfg *domain.DownloadConfig, fetcher PlaylistFetcher, snapshots domain.SnapshotStore, ledger domain.LedgerStore, batches *BatchManager, logger *zap.Logger) *SyncEngine {
	return &SyncEngine{
		cfg:       cfg,
		fetcher:   fetcher,
		snapshots: snapshots,
		ledger:    ledger,
		batches:   batches,
		logger:    logger,
	}
}

// DetectUpdates runs one check of a playlist against its snapshot.
// confirm may be nil, which proceeds unconditionally when changes are
// found. settings configure the triggered batch when one is run.
func (e *SyncEngine) DetectUpdates(ctx context.Context, playlistURL string, settings domain.BatchSettings, confirm ConfirmFunc) *SyncReport {
	report := &SyncReport{PlaylistURL: playlistURL}

	// Settings resolve the same way a batch would, so the snapshot and
	// ledger paths line up with where downloads actually land.
	settings.ApplyDefaults(&e.cfg.Defaults)
	if err := settings.Validate(); err != nil {
		report.Outcome = SyncError
		report.Error = err.Error()
		return report
	}

	metadata, err := e.fetcher.Fetch(ctx, playlistURL)
	if err != nil {
		e.logger.Warn("Playlist listing failed",
			zap.String("playlist_url", playlistURL),
			zap.Error(err))
		report.Outcome = SyncError
		report.Error = err.Error()
		return report
	}

	report.PlaylistID = metadata.ID
	report.PlaylistTitle = metadata.Title
	if report.PlaylistID == "" {
		report.PlaylistID = domain.ExtractPlaylistID(playlistURL)
	}
	if report.PlaylistID == "" {
		report.Outcome = SyncError
		report.Error = "could not determine playlist id"
		return report
	}

	current := make([]string, 0, len(metadata.Entries))
	currentSet := make(map[string]struct{}, len(metadata.Entries))
	urlByID := make(map[string]string, len(metadata.Entries))
	for _, entry := range metadata.Entries {
		if isUnavailable(entry.Title) {
			continue
		}
		key := entry.Key()
		if key == "" {
			continue
		}
		if _, dup := currentSet[key]; dup {
			continue
		}
		current = append(current, key)
		currentSet[key] = struct{}{}
		urlByID[key] = entry.URL
	}

	path := domain.NormalizePath(settings.DownloadPath)
	previous, _ := e.snapshots.Get(path, report.PlaylistID)
	previousSet := make(map[string]struct{}, len(previous.VideoIDs))
	for _, id := range previous.VideoIDs {
		previousSet[id] = struct{}{}
	}

	for _, id := range current {
		if _, known := previousSet[id]; !known {
			report.Added = append(report.Added, id)
		} else if !e.ledger.HasLocalFile(path, id) {
			report.MissingLocally = append(report.MissingLocally, id)
		}
	}
	for _, id := range previous.VideoIDs {
		if _, still := currentSet[id]; !still {
			report.RemovedRemote = append(report.RemovedRemote, id)
		}
	}

	// Membership truth is updated the moment it is observed; only the
	// download of new items is gated below.
	snapshot := domain.PlaylistSnapshot{
		PlaylistURL: playlistURL,
		VideoIDs:    current,
		LastChecked: time.Now(),
	}
	if err := e.snapshots.Put(path, report.PlaylistID, snapshot); err != nil {
		e.logger.Error("Failed to persist playlist snapshot",
			zap.String("playlist_id", report.PlaylistID),
			zap.Error(err))
	}

	if !report.HasChanges() && len(report.RemovedRemote) == 0 {
		report.Outcome = SyncNoChange
		return report
	}

	for _, id := range report.MissingLocally {
		if err := e.ledger.Remove(path, id); err != nil {
			e.logger.Warn("Failed to evict stale ledger entry",
				zap.String("video_id", id),
				zap.Error(err))
		}
	}

	e.logger.Info("Playlist changed",
		zap.String("playlist_id", report.PlaylistID),
		zap.Int("added", len(report.Added)),
		zap.Int("removed_from_remote", len(report.RemovedRemote)),
		zap.Int("missing_locally", len(report.MissingLocally)))

	outcome := SyncProceed
	if confirm != nil {
		outcome = confirm(report)
	}
	report.Outcome = outcome
	if outcome != SyncProceed {
		return report
	}

	if e.batches != nil && report.HasChanges() {
		urls := make([]string, 0, len(report.Added)+len(report.MissingLocally))
		for _, id := range append(append([]string{}, report.Added...), report.MissingLocally...) {
			urls = append(urls, downloadURLFor(id, urlByID))
		}
		task, err := e.batches.RunTask(urls, settings)
		if err != nil {
			report.Outcome = SyncError
			report.Error = err.Error()
			return report
		}
		report.TaskID = task.ID
	}
	return report
}

// TrackedPlaylist is one persisted snapshot with its download path.
type TrackedPlaylist struct {
	DownloadPath string    `json:"download_path"`
	PlaylistID   string    `json:"playlist_id"`
	PlaylistURL  string    `json:"playlist_url"`
	VideoCount   int       `json:"video_count"`
	LastChecked  time.Time `json:"last_checked"`
}

// TrackedPlaylists lists every playlist with a persisted snapshot,
// ordered by download path then playlist ID.
func (e *SyncEngine) TrackedPlaylists() []TrackedPlaylist {
	var tracked []TrackedPlaylist
	for path, byPlaylist := range e.snapshots.All() {
		for id, snapshot := range byPlaylist {
			tracked = append(tracked, TrackedPlaylist{
				DownloadPath: path,
				PlaylistID:   id,
				PlaylistURL:  snapshot.PlaylistURL,
				VideoCount:   len(snapshot.VideoIDs),
				LastChecked:  snapshot.LastChecked,
			})
		}
	}
	sort.Slice(tracked, func(i, j int) bool {
		if tracked[i].DownloadPath != tracked[j].DownloadPath {
			return tracked[i].DownloadPath < tracked[j].DownloadPath
		}
		return tracked[i].PlaylistID < tracked[j].PlaylistID
	})
	return tracked
}

// CheckAll runs DetectUpdates for every playlist with a persisted
// snapshot, one at a time, reusing each snapshot's download path.
func (e *SyncEngine) CheckAll(ctx context.Context, settings domain.BatchSettings, confirm ConfirmFunc) []*SyncReport {
	var reports []*SyncReport
	for path, byPlaylist := range e.snapshots.All() {
		for _, snapshot := range byPlaylist {
			perPath := settings
			perPath.DownloadPath = path
			reports = append(reports, e.DetectUpdates(ctx, snapshot.PlaylistURL, perPath, confirm))
		}
	}
	return reports
}

func isUnavailable(title string) bool {
	_, unavailable := unavailableTitles[strings.ToLower(strings.TrimSpace(title))]
	return unavailable
}

// downloadURLFor resolves an entry key back to a fetchable URL. Flat
// listings usually carry one; bare YouTube IDs get the canonical watch
// URL, everything else is passed through untouched.
func downloadURLFor(id string, urlByID map[string]string) string {
	if url, ok := urlByID[id]; ok && url != "" {
		return url
	}
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}
	if strings.HasPrefix(id, "BV") || strings.HasPrefix(id, "bili_") {
		return "https://www.bilibili.com/video/" + strings.TrimPrefix(id, "bili_")
	}
	return "https://www.youtube.com/watch?v=" + id
}
