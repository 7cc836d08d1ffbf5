package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidbatch-go/internal/domain"
	"github.com/yourusername/vidbatch-go/internal/infrastructure"
)

// ProgressFunc receives structured progress for a video as it streams
// from the downloader.
type ProgressFunc func(videoID string, event domain.ProgressEvent)

// DownloadJob executes one URL-to-file download with bounded retries
// and cooperative cancellation. Each attempt launches the external
// downloader and streams its output through the progress parser.
type DownloadJob struct {
	spec       domain.DownloadJobSpec
	binary     string
	retryDelay time.Duration
	grace      time.Duration
	logger     *zap.Logger
	onProgress ProgressFunc

	mu        sync.Mutex
	cancelled bool
	task      *infrastructure.ProcessTask
}

// NewDownloadJob builds a job from a validated spec. onProgress may be
// nil.
func NewDownloadJob(spec domain.DownloadJobSpec, cfg *domain.DownloadConfig, logger *zap.Logger, onProgress ProgressFunc) *DownloadJob {
	if spec.MaxRetries <= 0 {
		spec.MaxRetries = cfg.MaxRetries
	}
	return &DownloadJob{
		spec:       spec,
		binary:     cfg.YTDLPBinary,
		retryDelay: cfg.RetryDelay,
		grace:      cfg.TerminateGrace,
		logger:     logger,
		onProgress: onProgress,
	}
}

// Cancel requests termination. The flag is monotonic: once set, no
// further attempts run, and any in-flight process is asked to exit
// gracefully before being killed.
func (j *DownloadJob) Cancel() {
	j.mu.Lock()
	j.cancelled = true
	task := j.task
	j.mu.Unlock()
	if task != nil {
		task.Terminate()
	}
}

func (j *DownloadJob) isCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// Run performs up to MaxRetries attempts with linearly increasing
// backoff between them. It blocks until a terminal result is reached.
func (j *DownloadJob) Run(ctx context.Context) domain.JobResult {
	videoID := j.spec.Video.ID
	start := time.Now()
	var lastMessage string

	for attempt := 0; attempt < j.spec.MaxRetries; attempt++ {
		if j.isCancelled() {
			return domain.JobResult{Status: domain.JobCancelled, Attempts: attempt, Message: "cancelled"}
		}
		if attempt > 0 {
			j.logger.Info("Retrying download",
				zap.String("video_id", videoID),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", j.spec.MaxRetries))
			select {
			case <-time.After(j.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return domain.JobResult{Status: domain.JobCancelled, Attempts: attempt, Message: ctx.Err().Error()}
			}
		}

		success, message := j.runOnce()
		if j.isCancelled() {
			return domain.JobResult{Status: domain.JobCancelled, Attempts: attempt + 1, Message: "cancelled"}
		}
		if success {
			elapsed := time.Since(start).Seconds()
			return domain.JobResult{
				Status:   domain.JobSucceeded,
				Attempts: attempt + 1,
				Message:  fmt.Sprintf("completed in %.1fs", elapsed),
			}
		}
		lastMessage = message
		j.logger.Warn("Download attempt failed",
			zap.String("video_id", videoID),
			zap.Int("attempt", attempt),
			zap.String("reason", message))
	}

	return domain.JobResult{
		Status:   domain.JobFailed,
		Attempts: j.spec.MaxRetries,
		Message:  fmt.Sprintf("failed after %d attempts: %s", j.spec.MaxRetries, lastMessage),
	}
}

// runOnce performs a single attempt. Spawn and I/O failures map to the
// same failure channel as a non-zero exit, always with a readable
// cause.
func (j *DownloadJob) runOnce() (bool, string) {
	args := infrastructure.BuildJobArgs(&j.spec, "")
	task := infrastructure.NewProcessTask(j.binary, args, j.grace)

	j.mu.Lock()
	if j.cancelled {
		j.mu.Unlock()
		return false, "cancelled"
	}
	j.task = task
	j.mu.Unlock()

	j.logger.Debug("Launching downloader",
		zap.String("video_id", j.spec.Video.ID),
		zap.String("command", infrastructure.ShellEscapeCommand(j.binary, args...)))

	streamDone, err := task.Start(func(line string) {
		if j.isCancelled() {
			task.Terminate()
			return
		}
		if event := infrastructure.ParseProgressLine(line); !event.Empty() && j.onProgress != nil {
			j.onProgress(j.spec.Video.ID, event)
		}
	})
	if err != nil {
		return false, err.Error()
	}

	<-streamDone
	waitErr := task.Wait(0)

	j.mu.Lock()
	j.task = nil
	j.mu.Unlock()

	if waitErr == nil {
		return true, ""
	}
	return false, fmt.Sprintf("downloader exited with code %d", task.ExitCode())
}
