package domain

import "time"

// LedgerEntry records one completed download, keyed by the normalized
// download path plus video ID. An entry is only valid while a matching
// file exists on disk; lookups self-heal stale entries.
type LedgerEntry struct {
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PlaylistSnapshot is the last observed membership of a playlist for a
// given download path. It is overwritten wholesale on every successful
// diff, never partially merged.
type PlaylistSnapshot struct {
	PlaylistURL string    `json:"playlist_url"`
	VideoIDs    []string  `json:"video_ids"` // remote-reported order
	LastChecked time.Time `json:"last_checked"`
}

// LedgerStore is the persisted download history with filesystem-backed
// dedup. Implementations must make check-then-act sequences atomic.
type LedgerStore interface {
	// IsDownloaded reports whether a video is already present, either as
	// a matching local file or as a ledger entry backed by one. A ledger
	// entry with no local file is evicted and false is returned.
	IsDownloaded(downloadPath, videoID string) bool

	// HasLocalFile reports whether a local file matches the video ID,
	// without consulting or mutating ledger entries.
	HasLocalFile(downloadPath, videoID string) bool

	// Add upserts an entry and persists synchronously.
	Add(downloadPath, videoID, url, title string) error

	// Remove evicts an entry, forcing re-download eligibility.
	Remove(downloadPath, videoID string) error

	// Entries returns a copy of all entries keyed by path then video ID.
	Entries() map[string]map[string]LedgerEntry
}

// SnapshotStore persists playlist snapshots keyed by normalized
// download path and playlist ID.
type SnapshotStore interface {
	Get(downloadPath, playlistID string) (PlaylistSnapshot, bool)

	// Put overwrites the snapshot for the pair and persists synchronously.
	Put(downloadPath, playlistID string, snapshot PlaylistSnapshot) error

	// All returns a copy of every stored snapshot.
	All() map[string]map[string]PlaylistSnapshot
}
