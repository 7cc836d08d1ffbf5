package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vidbatch-go/internal/domain"
)

func newTestLedger(t *testing.T) (*JSONLedgerStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewJSONLedgerStore(filepath.Join(dir, "history.json"))
	require.NoError(t, err)
	return store, dir
}

func touchFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
}

func TestLedger_HasLocalFileBracketedID(t *testing.T) {
	store, dir := newTestLedger(t)
	touchFile(t, dir, "Channel - Some Title [dQw4w9WgXcQ].mp4")

	assert.True(t, store.HasLocalFile(dir, "dQw4w9WgXcQ"))
	assert.False(t, store.HasLocalFile(dir, "zzzPPPqqq11"))
}

func TestLedger_HasLocalFileIgnoresPartials(t *testing.T) {
	store, dir := newTestLedger(t)
	touchFile(t, dir, "Some Title [dQw4w9WgXcQ].mp4.part")
	touchFile(t, dir, "Some Title [dQw4w9WgXcQ].mp4.ytdl")

	assert.False(t, store.HasLocalFile(dir, "dQw4w9WgXcQ"))
}

func TestLedger_HasLocalFileIgnoresNonVideo(t *testing.T) {
	store, dir := newTestLedger(t)
	touchFile(t, dir, "Some Title [dQw4w9WgXcQ].srt")
	touchFile(t, dir, "Some Title [dQw4w9WgXcQ].jpg")

	assert.False(t, store.HasLocalFile(dir, "dQw4w9WgXcQ"))
}

func TestLedger_HasLocalFileFuzzyBracketToken(t *testing.T) {
	store, dir := newTestLedger(t)
	// A single-character drift in the bracketed token still matches.
	touchFile(t, dir, "Some Title [dQw4w9WgXcX].mp4")

	assert.True(t, store.HasLocalFile(dir, "dQw4w9WgXcQ"))
}

func TestLedger_IsDownloadedByLocalFile(t *testing.T) {
	store, dir := newTestLedger(t)
	touchFile(t, dir, "Some Title [dQw4w9WgXcQ].mkv")

	assert.True(t, store.IsDownloaded(dir, "dQw4w9WgXcQ"))
}

func TestLedger_IsDownloadedByEntry(t *testing.T) {
	store, dir := newTestLedger(t)
	touchFile(t, dir, "Some Title [dQw4w9WgXcQ].mp4")
	require.NoError(t, store.Add(dir, "dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ", "Some Title"))

	assert.True(t, store.IsDownloaded(dir, "dQw4w9WgXcQ"))
}

func TestLedger_StaleEntryEvicted(t *testing.T) {
	store, dir := newTestLedger(t)
	require.NoError(t, store.Add(dir, "goneVideo123", "https://youtu.be/goneVideo123", "Deleted Locally"))

	// No file on disk backs the entry, so the lookup self-heals.
	assert.False(t, store.IsDownloaded(dir, "goneVideo123"))

	entries := store.Entries()
	_, remains := entries[domain.NormalizePath(dir)]["goneVideo123"]
	assert.False(t, remains)
}

func TestLedger_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "state", "history.json")

	store, err := NewJSONLedgerStore(historyPath)
	require.NoError(t, err)
	require.NoError(t, store.Add(dir, "dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ", "Some Title"))

	reloaded, err := NewJSONLedgerStore(historyPath)
	require.NoError(t, err)
	entry, ok := reloaded.Entries()[domain.NormalizePath(dir)]["dQw4w9WgXcQ"]
	require.True(t, ok)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", entry.URL)
	assert.Equal(t, "Some Title", entry.Title)
}

func TestLedger_CorruptFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewJSONLedgerStore(path)

	assert.Error(t, err)
}

func TestLedger_Remove(t *testing.T) {
	store, dir := newTestLedger(t)
	require.NoError(t, store.Add(dir, "dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ", ""))

	require.NoError(t, store.Remove(dir, "dQw4w9WgXcQ"))

	assert.Empty(t, store.Entries())
}

func TestSnapshotStore_PutGet(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONSnapshotStore(filepath.Join(dir, "snapshots.json"))
	require.NoError(t, err)

	snapshot := domain.PlaylistSnapshot{
		PlaylistURL: "https://www.youtube.com/playlist?list=PLabc",
		VideoIDs:    []string{"aaa111bbb22", "ccc333ddd44"},
		LastChecked: time.Now(),
	}
	require.NoError(t, store.Put(dir, "PLabc", snapshot))

	got, ok := store.Get(dir, "PLabc")
	require.True(t, ok)
	assert.Equal(t, snapshot.VideoIDs, got.VideoIDs)

	_, ok = store.Get(dir, "PLother")
	assert.False(t, ok)
}

func TestSnapshotStore_PutOverwritesWholesale(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONSnapshotStore(filepath.Join(dir, "snapshots.json"))
	require.NoError(t, err)

	require.NoError(t, store.Put(dir, "PLabc", domain.PlaylistSnapshot{VideoIDs: []string{"a", "b", "c"}}))
	require.NoError(t, store.Put(dir, "PLabc", domain.PlaylistSnapshot{VideoIDs: []string{"a", "d"}}))

	got, ok := store.Get(dir, "PLabc")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "d"}, got.VideoIDs)
}

func TestSnapshotStore_RequiresKeys(t *testing.T) {
	store, err := NewJSONSnapshotStore(filepath.Join(t.TempDir(), "snapshots.json"))
	require.NoError(t, err)

	assert.Error(t, store.Put("", "PLabc", domain.PlaylistSnapshot{}))
	assert.Error(t, store.Put("/tmp", "", domain.PlaylistSnapshot{}))
}

func TestSnapshotStore_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshots.json")

	store, err := NewJSONSnapshotStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(dir, "PLabc", domain.PlaylistSnapshot{
		PlaylistURL: "https://www.youtube.com/playlist?list=PLabc",
		VideoIDs:    []string{"aaa111bbb22"},
	}))

	reloaded, err := NewJSONSnapshotStore(path)
	require.NoError(t, err)
	got, ok := reloaded.Get(dir, "PLabc")
	require.True(t, ok)
	assert.Equal(t, []string{"aaa111bbb22"}, got.VideoIDs)
}

func TestSimilarityRatio(t *testing.T) {
	assert.Equal(t, 1.0, similarityRatio("abc", "abc"))
	assert.InDelta(t, 0.909, similarityRatio("dQw4w9WgXcQ", "dQw4w9WgXcX"), 0.001)
	assert.Less(t, similarityRatio("dQw4w9WgXcQ", "zzzzzzzzzzz"), SimilarityThreshold)
}
