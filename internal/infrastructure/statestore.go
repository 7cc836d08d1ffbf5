package infrastructure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/yourusername/vidbatch-go/internal/domain"
)

// Known video file extensions considered for local dedup matching.
var videoExtensions = []string{".mp4", ".webm", ".mkv", ".flv", ".avi", ".mov", ".m4a"}

// Partial or temp artifacts the downloader leaves behind mid-transfer.
var ignoreSuffixes = []string{".part", ".ytdl", ".temp", ".aria2"}

var bracketIDPattern = regexp.MustCompile(`\[([A-Za-z0-9_-]{8,})\]`)

// SimilarityThreshold is the minimum normalized edit-distance ratio for
// a bracketed filename token to count as matching a video ID. Tuned
// empirically to tolerate minor extraction drift.
const SimilarityThreshold = 0.75

// JSONLedgerStore persists the download history to a single JSON file,
// with filesystem-backed existence checks providing idempotent
// skip-if-present behavior. All check-then-act sequences run under one
// exclusive lock; persistence happens synchronously inside the locked
// section so durable state never trails in-memory state.
type JSONLedgerStore struct {
	path    string
	mu      sync.Mutex
	entries map[string]map[string]domain.LedgerEntry
}

// NewJSONLedgerStore loads the history file if present. A missing file
// starts an empty ledger; a corrupt file is an error.
func NewJSONLedgerStore(path string) (*JSONLedgerStore, error) {
	store := &JSONLedgerStore{
		path:    path,
		entries: make(map[string]map[string]domain.LedgerEntry),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	raw := make(map[string]map[string]domain.LedgerEntry)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	// Re-key on normalized paths in case the file was edited by hand.
	for path, videos := range raw {
		norm := domain.NormalizePath(path)
		if norm == "" {
			continue
		}
		if store.entries[norm] == nil {
			store.entries[norm] = make(map[string]domain.LedgerEntry)
		}
		for id, entry := range videos {
			store.entries[norm][id] = entry
		}
	}
	return store, nil
}

// IsDownloaded reports whether the video already exists locally, either
// as a matching file or as a ledger entry backed by one. An entry whose
// file has been removed is evicted so the item becomes eligible for
// re-download.
func (s *JSONLedgerStore) IsDownloaded(downloadPath, videoID string) bool {
	downloadPath = domain.NormalizePath(downloadPath)
	if s.HasLocalFile(downloadPath, videoID) {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if videos, ok := s.entries[downloadPath]; ok {
		if _, ok := videos[videoID]; ok {
			delete(videos, videoID)
			if len(videos) == 0 {
				delete(s.entries, downloadPath)
			}
			s.persistLocked()
		}
	}
	return false
}

// HasLocalFile scans the directory (non-recursively) for a completed
// video file matching the ID. A filename is a candidate only if its
// extension is a known video extension and it does not carry a
// partial/temp suffix. It matches when the bracketed form appears, the
// raw ID is a substring, a bracket token and the ID contain each other,
// or the two are similar beyond SimilarityThreshold.
func (s *JSONLedgerStore) HasLocalFile(downloadPath, videoID string) bool {
	downloadPath = domain.NormalizePath(downloadPath)
	if downloadPath == "" {
		return false
	}
	info, err := os.Stat(downloadPath)
	if err != nil || !info.IsDir() {
		return false
	}
	videoID = strings.TrimSpace(videoID)

	names, err := os.ReadDir(downloadPath)
	if err != nil {
		return false
	}
	for _, entry := range names {
		name := entry.Name()
		if !hasVideoExtension(name) || hasIgnoredSuffix(name) {
			continue
		}
		if strings.Contains(name, "["+videoID+"]") || strings.Contains(name, videoID) {
			return true
		}
		if m := bracketIDPattern.FindStringSubmatch(name); m != nil {
			fileID := m[1]
			if strings.Contains(videoID, fileID) || strings.Contains(fileID, videoID) {
				return true
			}
			if similarityRatio(fileID, videoID) >= SimilarityThreshold {
				return true
			}
		}
	}
	return false
}

// Add upserts a ledger entry and persists the whole ledger.
func (s *JSONLedgerStore) Add(downloadPath, videoID, url, title string) error {
	downloadPath = domain.NormalizePath(downloadPath)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[downloadPath] == nil {
		s.entries[downloadPath] = make(map[string]domain.LedgerEntry)
	}
	s.entries[downloadPath][videoID] = domain.LedgerEntry{
		URL:       url,
		Title:     title,
		Timestamp: time.Now(),
	}
	return s.persistLocked()
}

// Remove evicts an entry, forcing re-download eligibility.
func (s *JSONLedgerStore) Remove(downloadPath, videoID string) error {
	downloadPath = domain.NormalizePath(downloadPath)
	s.mu.Lock()
	defer s.mu.Unlock()
	if videos, ok := s.entries[downloadPath]; ok {
		delete(videos, videoID)
		if len(videos) == 0 {
			delete(s.entries, downloadPath)
		}
		return s.persistLocked()
	}
	return nil
}

// Entries returns a deep copy of all ledger entries.
func (s *JSONLedgerStore) Entries() map[string]map[string]domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[string]domain.LedgerEntry, len(s.entries))
	for path, videos := range s.entries {
		out[path] = make(map[string]domain.LedgerEntry, len(videos))
		for id, entry := range videos {
			out[path][id] = entry
		}
	}
	return out
}

func (s *JSONLedgerStore) persistLocked() error {
	return writeJSONFile(s.path, s.entries)
}

// JSONSnapshotStore persists playlist snapshots to a single JSON file
// under its own lock, mirroring the ledger store's durability rules.
type JSONSnapshotStore struct {
	path      string
	mu        sync.Mutex
	snapshots map[string]map[string]domain.PlaylistSnapshot
}

// NewJSONSnapshotStore loads the snapshot file if present.
func NewJSONSnapshotStore(path string) (*JSONSnapshotStore, error) {
	store := &JSONSnapshotStore{
		path:      path,
		snapshots: make(map[string]map[string]domain.PlaylistSnapshot),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	raw := make(map[string]map[string]domain.PlaylistSnapshot)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file: %w", err)
	}
	for path, playlists := range raw {
		norm := domain.NormalizePath(path)
		if norm == "" {
			continue
		}
		if store.snapshots[norm] == nil {
			store.snapshots[norm] = make(map[string]domain.PlaylistSnapshot)
		}
		for id, snap := range playlists {
			store.snapshots[norm][id] = snap
		}
	}
	return store, nil
}

// Get returns the snapshot for a (path, playlist) pair.
func (s *JSONSnapshotStore) Get(downloadPath, playlistID string) (domain.PlaylistSnapshot, bool) {
	downloadPath = domain.NormalizePath(downloadPath)
	s.mu.Lock()
	defer s.mu.Unlock()
	if playlists, ok := s.snapshots[downloadPath]; ok {
		if snap, ok := playlists[playlistID]; ok {
			return snap, true
		}
	}
	return domain.PlaylistSnapshot{}, false
}

// Put overwrites the snapshot wholesale and persists.
func (s *JSONSnapshotStore) Put(downloadPath, playlistID string, snapshot domain.PlaylistSnapshot) error {
	downloadPath = domain.NormalizePath(downloadPath)
	if downloadPath == "" || playlistID == "" {
		return fmt.Errorf("snapshot requires a download path and playlist id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshots[downloadPath] == nil {
		s.snapshots[downloadPath] = make(map[string]domain.PlaylistSnapshot)
	}
	s.snapshots[downloadPath][playlistID] = snapshot
	return writeJSONFile(s.path, s.snapshots)
}

// All returns a copy of every stored snapshot.
func (s *JSONSnapshotStore) All() map[string]map[string]domain.PlaylistSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[string]domain.PlaylistSnapshot, len(s.snapshots))
	for path, playlists := range s.snapshots {
		out[path] = make(map[string]domain.PlaylistSnapshot, len(playlists))
		for id, snap := range playlists {
			out[path][id] = snap
		}
	}
	return out
}

func hasVideoExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func hasIgnoredSuffix(name string) bool {
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// similarityRatio is a normalized edit-distance similarity in [0, 1].
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	distance := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

func writeJSONFile(path string, value interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
