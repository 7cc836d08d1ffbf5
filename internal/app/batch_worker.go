package app

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidbatch-go/internal/domain"
	"github.com/yourusername/vidbatch-go/internal/infrastructure"
)

// BatchListener receives user-facing updates from a running batch.
// Implementations must be safe for calls from the worker goroutine.
type BatchListener interface {
	OnStatus(taskID, status string)
	OnProgress(taskID, progress string)
	OnLog(taskID, line string)
	OnFinished(taskID string, stats *domain.DownloadStats)
}

// BatchWorker drives one batch task: items run strictly in submission
// order on a single goroutine, with pause/resume/stop control and
// ledger-based dedup. Concurrency exists only across independently
// created workers.
type BatchWorker struct {
	task     *domain.BatchTask
	urls     []string
	settings domain.BatchSettings
	cfg      *domain.DownloadConfig
	ledger   domain.LedgerStore
	logger   *zap.Logger
	listener BatchListener

	mu       sync.Mutex
	running  bool
	paused   bool
	resumeCh chan struct{}
	stopCh   chan struct{}
	current  *infrastructure.ProcessTask

	stats      domain.DownloadStats
	finishOnce sync.Once
	doneCh     chan struct{}
}

// NewBatchWorker builds a worker over a task whose settings have been
// validated.
func NewBatchWorker(task *domain.BatchTask, cfg *domain.DownloadConfig, ledger domain.LedgerStore, logger *zap.Logger, listener BatchListener) *BatchWorker {
	return &BatchWorker{
		task:     task,
		urls:     task.URLList(),
		settings: task.Settings,
		cfg:      cfg,
		ledger:   ledger,
		logger:   logger,
		listener: listener,
		running:  true,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Pause suspends the worker before its next item. Idempotent.
func (w *BatchWorker) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.paused {
		w.paused = true
		w.resumeCh = make(chan struct{})
	}
}

// Resume releases a paused worker. Idempotent.
func (w *BatchWorker) Resume() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		w.paused = false
		close(w.resumeCh)
	}
}

// Stop aborts the loop and terminates any in-flight downloader process.
// Idempotent; never affects sibling workers.
func (w *BatchWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	current := w.current
	w.mu.Unlock()
	if current != nil {
		current.Terminate()
	}
}

// IsPaused reports whether the worker is currently paused.
func (w *BatchWorker) IsPaused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paused
}

// Done is closed once the final stats have been emitted.
func (w *BatchWorker) Done() <-chan struct{} {
	return w.doneCh
}

// Stats returns a copy of the counters accumulated so far.
func (w *BatchWorker) Stats() domain.DownloadStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *BatchWorker) isRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// awaitResume blocks while the worker is paused without consuming an
// item. Returns immediately once stopped.
func (w *BatchWorker) awaitResume() {
	for {
		w.mu.Lock()
		if !w.paused || !w.running {
			w.mu.Unlock()
			return
		}
		resume := w.resumeCh
		w.mu.Unlock()
		select {
		case <-resume:
		case <-w.stopCh:
			return
		}
	}
}

// Run executes the batch to completion or stop. Final aggregate stats
// are emitted exactly once, whether the loop ends normally or early.
func (w *BatchWorker) Run() {
	start := time.Now()
	taskID := w.task.ID
	total := len(w.urls)
	w.emitLog(fmt.Sprintf("task started (%d items)", total))

	for idx, url := range w.urls {
		if !w.isRunning() {
			break
		}
		w.awaitResume()
		if !w.isRunning() {
			break
		}

		w.emitStatus(fmt.Sprintf("downloading %d/%d", idx+1, total))

		platform := domain.DetectPlatform(url)
		videoID := domain.ExtractVideoID(url)
		w.emitLog(fmt.Sprintf("[%d/%d] %s (platform: %s, id: %s)", idx+1, total, url, platform, videoID))

		w.mu.Lock()
		w.stats.Total++
		w.mu.Unlock()

		if w.ledger.IsDownloaded(w.settings.DownloadPath, videoID) {
			w.mu.Lock()
			w.stats.Skipped++
			w.mu.Unlock()
			w.emitLog("already downloaded, skipping")
			continue
		}

		success := w.downloadSingle(url, platform)

		if success {
			w.mu.Lock()
			w.stats.Successful++
			w.mu.Unlock()
			w.emitLog("download succeeded")
			if err := w.ledger.Add(w.settings.DownloadPath, videoID, url, ""); err != nil {
				w.logger.Error("Failed to record download",
					zap.String("task_id", taskID),
					zap.String("video_id", videoID),
					zap.Error(err))
			}
		} else {
			w.mu.Lock()
			w.stats.Failed++
			w.mu.Unlock()
			w.emitLog("download failed")
		}

		if idx < total-1 && w.isRunning() {
			select {
			case <-time.After(w.cfg.ItemDelay):
			case <-w.stopCh:
			}
		}
	}

	w.mu.Lock()
	w.stats.TotalTimeSeconds = int64(time.Since(start).Seconds())
	stats := w.stats
	stopped := !w.running
	w.mu.Unlock()

	w.emitLog("task finished: " + stats.Summary())
	w.finishOnce.Do(func() {
		w.task.Stats = stats
		w.task.MarkCompleted(stopped)
		if w.listener != nil {
			w.listener.OnFinished(taskID, &stats)
		}
		close(w.doneCh)
	})
}

// downloadSingle runs one downloader invocation for an item and reports
// success. A non-zero exit still counts as success when the output
// stream proved at least one file was fully downloaded or merged;
// playlists with upstream-deleted entries exit non-zero even when the
// rest downloaded fine.
func (w *BatchWorker) downloadSingle(url string, platform domain.Platform) bool {
	args := infrastructure.BuildBatchArgs(url, platform, &w.settings)
	task := infrastructure.NewProcessTask(w.cfg.YTDLPBinary, args, w.cfg.TerminateGrace)
	task.SetDir(w.settings.DownloadPath)

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return false
	}
	w.current = task
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.current = nil
		w.mu.Unlock()
	}()

	w.logger.Debug("Launching downloader",
		zap.String("task_id", w.task.ID),
		zap.String("command", infrastructure.ShellEscapeCommand(w.cfg.YTDLPBinary, args...)))

	var progressMu sync.Mutex
	lastProgress := ""
	hasEvidence := false

	streamDone, err := task.Start(func(line string) {
		if !w.isRunning() {
			task.Terminate()
			return
		}
		switch infrastructure.ClassifyLine(line) {
		case domain.LineProgress:
			event := infrastructure.ParseProgressLine(line)
			if progress := infrastructure.FormatProgress(event); progress != "" {
				progressMu.Lock()
				changed := progress != lastProgress
				if changed {
					lastProgress = progress
				}
				progressMu.Unlock()
				if changed {
					w.emitProgress(progress)
				}
			}
		case domain.LineLog:
			w.emitLog(line)
		}
		if infrastructure.SuccessEvidence(line) {
			progressMu.Lock()
			hasEvidence = true
			progressMu.Unlock()
		}
	})
	if err != nil {
		w.emitLog("error: " + err.Error())
		return false
	}

	<-streamDone
	timeout := time.Duration(w.settings.DownloadTimeout) * time.Second
	waitErr := task.Wait(timeout)

	progressMu.Lock()
	evidence := hasEvidence
	progressMu.Unlock()

	if waitErr == nil {
		return true
	}
	if task.ExitCode() >= 0 {
		return evidence
	}
	w.emitLog("error: " + waitErr.Error())
	return false
}

func (w *BatchWorker) emitStatus(status string) {
	if w.listener != nil {
		w.listener.OnStatus(w.task.ID, status)
	}
}

func (w *BatchWorker) emitProgress(progress string) {
	if w.listener != nil {
		w.listener.OnProgress(w.task.ID, progress)
	}
}

func (w *BatchWorker) emitLog(line string) {
	if w.listener != nil {
		w.listener.OnLog(w.task.ID, line)
	}
}
