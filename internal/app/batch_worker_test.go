package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vidbatch-go/internal/domain"
	"github.com/yourusername/vidbatch-go/internal/infrastructure"
)

// recordingListener captures every worker callback for assertions.
type recordingListener struct {
	mu       sync.Mutex
	statuses []string
	progress []string
	logs     []string
	finished int
	stats    *domain.DownloadStats
	done     chan struct{}
}

func newRecordingListener() *recordingListener {
	return &recordingListener{done: make(chan struct{})}
}

func (l *recordingListener) OnStatus(taskID, status string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, status)
}

func (l *recordingListener) OnProgress(taskID, progress string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.progress = append(l.progress, progress)
}

func (l *recordingListener) OnLog(taskID, line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, line)
}

func (l *recordingListener) OnFinished(taskID string, stats *domain.DownloadStats) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finished++
	l.stats = stats
	close(l.done)
}

func (l *recordingListener) waitFinished(t *testing.T) *domain.DownloadStats {
	t.Helper()
	select {
	case <-l.done:
	case <-time.After(10 * time.Second):
		t.Fatal("batch never finished")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func newTestWorker(t *testing.T, binary string, urls []string) (*BatchWorker, *recordingListener, string) {
	t.Helper()
	downloadDir := t.TempDir()
	settings := domain.BatchSettings{DownloadPath: downloadDir}
	require.NoError(t, settings.Validate())

	ledger, err := infrastructure.NewJSONLedgerStore(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)

	task := domain.NewBatchTask(urls, settings)
	listener := newRecordingListener()
	worker := NewBatchWorker(task, testDownloadConfig(binary), ledger, zap.NewNop(), listener)
	return worker, listener, downloadDir
}

func TestBatchWorker_RunAllItems(t *testing.T) {
	binary := writeFakeDownloader(t, `echo "[download] 100.0% of 10.00MiB in 00:10"
exit 0`)
	worker, listener, _ := newTestWorker(t, binary, []string{
		"https://youtu.be/aaa111bbb22",
		"https://youtu.be/ccc333ddd44",
	})

	worker.Run()
	stats := listener.waitFinished(t)

	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(2), stats.Successful)
	assert.Equal(t, int64(0), stats.Failed)
	assert.Equal(t, domain.BatchCompleted, worker.task.Status)
}

func TestBatchWorker_RecordsSuccessInLedger(t *testing.T) {
	binary := writeFakeDownloader(t, "exit 0")
	worker, listener, downloadDir := newTestWorker(t, binary, []string{"https://youtu.be/aaa111bbb22"})

	worker.Run()
	listener.waitFinished(t)

	entries := worker.ledger.Entries()
	entry, ok := entries[domain.NormalizePath(downloadDir)]["aaa111bbb22"]
	require.True(t, ok)
	assert.Equal(t, "https://youtu.be/aaa111bbb22", entry.URL)
}

func TestBatchWorker_SkipsDownloadedItems(t *testing.T) {
	binary := writeFakeDownloader(t, "exit 0")
	worker, listener, downloadDir := newTestWorker(t, binary, []string{
		"https://youtu.be/aaa111bbb22",
		"https://youtu.be/ccc333ddd44",
	})
	require.NoError(t, os.WriteFile(
		filepath.Join(downloadDir, "Already Here [aaa111bbb22].mp4"), []byte("x"), 0644))

	worker.Run()
	stats := listener.waitFinished(t)

	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Skipped)
	assert.Equal(t, int64(1), stats.Successful)
}

func TestBatchWorker_NonZeroExitWithEvidenceCountsAsSuccess(t *testing.T) {
	// A playlist with upstream-deleted entries exits non-zero even when
	// everything else downloaded.
	binary := writeFakeDownloader(t, `echo "[Merger] Merging formats into \"video.mp4\""
exit 1`)
	worker, listener, _ := newTestWorker(t, binary, []string{"https://youtu.be/aaa111bbb22"})

	worker.Run()
	stats := listener.waitFinished(t)

	assert.Equal(t, int64(1), stats.Successful)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestBatchWorker_FailureWithoutEvidence(t *testing.T) {
	binary := writeFakeDownloader(t, `echo "ERROR: unable to download video data"
exit 1`)
	worker, listener, _ := newTestWorker(t, binary, []string{"https://youtu.be/aaa111bbb22"})

	worker.Run()
	stats := listener.waitFinished(t)

	assert.Equal(t, int64(0), stats.Successful)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, domain.BatchCompleted, worker.task.Status)
}

func TestBatchWorker_ProgressDeduplicated(t *testing.T) {
	binary := writeFakeDownloader(t, `echo "[download]  50.0% of 10.00MiB at 1.00MiB/s ETA 00:05"
echo "[download]  50.0% of 10.00MiB at 1.00MiB/s ETA 00:05"
echo "[download]  75.0% of 10.00MiB at 1.00MiB/s ETA 00:02"
exit 0`)
	worker, listener, _ := newTestWorker(t, binary, []string{"https://youtu.be/aaa111bbb22"})

	worker.Run()
	listener.waitFinished(t)

	listener.mu.Lock()
	defer listener.mu.Unlock()
	assert.Equal(t, []string{
		"50.0% | 10.00MiB | 1.00MiB/s | 00:05",
		"75.0% | 10.00MiB | 1.00MiB/s | 00:02",
	}, listener.progress)
}

func TestBatchWorker_StopTerminatesInFlight(t *testing.T) {
	binary := writeFakeDownloader(t, `echo "[download]   1.0% of 10.00MiB at 1.00MiB/s ETA 09:59"
sleep 30
exit 0`)
	worker, listener, _ := newTestWorker(t, binary, []string{
		"https://youtu.be/aaa111bbb22",
		"https://youtu.be/ccc333ddd44",
	})

	go worker.Run()
	require.Eventually(t, func() bool {
		listener.mu.Lock()
		defer listener.mu.Unlock()
		return len(listener.progress) > 0
	}, 5*time.Second, 10*time.Millisecond)

	start := time.Now()
	worker.Stop()
	stats := listener.waitFinished(t)

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, int64(1), stats.Total) // second item never started
	assert.Equal(t, domain.BatchStopped, worker.task.Status)
}

func TestBatchWorker_PauseHoldsBeforeNextItem(t *testing.T) {
	binary := writeFakeDownloader(t, "exit 0")
	worker, listener, _ := newTestWorker(t, binary, []string{"https://youtu.be/aaa111bbb22"})

	worker.Pause()
	go worker.Run()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(0), worker.Stats().Total)
	assert.True(t, worker.IsPaused())

	worker.Resume()
	stats := listener.waitFinished(t)
	assert.Equal(t, int64(1), stats.Total)
}

func TestBatchWorker_StopWhilePausedFinishes(t *testing.T) {
	binary := writeFakeDownloader(t, "exit 0")
	worker, listener, _ := newTestWorker(t, binary, []string{"https://youtu.be/aaa111bbb22"})

	worker.Pause()
	go worker.Run()
	time.Sleep(50 * time.Millisecond)
	worker.Stop()

	stats := listener.waitFinished(t)
	assert.Equal(t, int64(0), stats.Total)
	assert.Equal(t, domain.BatchStopped, worker.task.Status)
}

func TestBatchWorker_FinishedEmittedOnce(t *testing.T) {
	binary := writeFakeDownloader(t, "exit 0")
	worker, listener, _ := newTestWorker(t, binary, []string{"https://youtu.be/aaa111bbb22"})

	worker.Run()
	listener.waitFinished(t)
	worker.Stop() // late stop must not re-emit

	listener.mu.Lock()
	defer listener.mu.Unlock()
	assert.Equal(t, 1, listener.finished)
}
