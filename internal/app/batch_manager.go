package app

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/vidbatch-go/internal/domain"
	"github.com/yourusername/vidbatch-go/internal/infrastructure"
)

// BatchEventKind labels the updates fanned out to subscribers.
type BatchEventKind string

const (
	EventStatus   BatchEventKind = "status"
	EventProgress BatchEventKind = "progress"
	EventLog      BatchEventKind = "log"
	EventFinished BatchEventKind = "finished"
)

// BatchEvent is one update from a running batch, delivered to every
// subscriber.
type BatchEvent struct {
	TaskID  string         `json:"task_id"`
	Kind    BatchEventKind `json:"kind"`
	Payload string         `json:"payload"`
}

// BatchManager owns the lifecycle of batch tasks: creation, persistence,
// control and fan-out of progress events. Each running task gets its own
// worker goroutine; control calls address one task and never touch the
// others.
type BatchManager struct {
	cfg      *domain.Config
	repo     domain.BatchRepository
	ledger   domain.LedgerStore
	notifier *infrastructure.NotificationService
	logger   *zap.Logger

	mu      sync.RWMutex
	workers map[string]*BatchWorker

	subMu       sync.RWMutex
	subscribers map[chan BatchEvent]struct{}
}

// NewBatchManager wires a manager from its collaborators. notifier may
// be nil to disable desktop notifications.
func NewBatchManager(cfg *domain.Config, repo domain.BatchRepository, ledger domain.LedgerStore, notifier *infrastructure.NotificationService, logger *zap.Logger) *BatchManager {
	return &BatchManager{
		cfg:         cfg,
		repo:        repo,
		ledger:      ledger,
		notifier:    notifier,
		logger:      logger,
		workers:     make(map[string]*BatchWorker),
		subscribers: make(map[chan BatchEvent]struct{}),
	}
}

// CreateTask validates the settings, fills unset fields from the
// configured defaults and persists a queued task. Invalid settings are
// rejected before any work starts.
func (m *BatchManager) CreateTask(urls []string, settings domain.BatchSettings) (*domain.BatchTask, error) {
	if len(urls) == 0 {
		return nil, &domain.ConfigurationError{Field: "urls", Reason: "at least one URL is required"}
	}
	settings.ApplyDefaults(&m.cfg.Download.Defaults)
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	task := domain.NewBatchTask(urls, settings)
	if err := m.repo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}
	m.logger.Info("Batch task created",
		zap.String("task_id", task.ID),
		zap.Int("urls", len(urls)))
	return task, nil
}

// StartTask launches the worker goroutine for a queued task.
func (m *BatchManager) StartTask(taskID string) error {
	task, err := m.repo.FindByID(taskID)
	if err != nil {
		return err
	}
	if task.IsTerminal() {
		return fmt.Errorf("task %s already finished with status %s", taskID, task.Status)
	}

	m.mu.Lock()
	if _, exists := m.workers[taskID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("task %s is already running", taskID)
	}
	worker := NewBatchWorker(task, &m.cfg.Download, m.ledger, m.logger, m)
	m.workers[taskID] = worker
	m.mu.Unlock()

	task.MarkRunning()
	if err := m.repo.Update(task); err != nil {
		m.logger.Error("Failed to persist task start", zap.String("task_id", taskID), zap.Error(err))
	}

	go worker.Run()
	return nil
}

// RunTask creates and immediately starts a task.
func (m *BatchManager) RunTask(urls []string, settings domain.BatchSettings) (*domain.BatchTask, error) {
	task, err := m.CreateTask(urls, settings)
	if err != nil {
		return nil, err
	}
	if err := m.StartTask(task.ID); err != nil {
		return nil, err
	}
	return task, nil
}

// PauseTask suspends a running task before its next item.
func (m *BatchManager) PauseTask(taskID string) error {
	worker, err := m.workerFor(taskID)
	if err != nil {
		return err
	}
	worker.Pause()
	m.updateStatus(taskID, domain.BatchPaused)
	m.publish(BatchEvent{TaskID: taskID, Kind: EventStatus, Payload: string(domain.BatchPaused)})
	return nil
}

// ResumeTask releases a paused task.
func (m *BatchManager) ResumeTask(taskID string) error {
	worker, err := m.workerFor(taskID)
	if err != nil {
		return err
	}
	worker.Resume()
	m.updateStatus(taskID, domain.BatchRunning)
	m.publish(BatchEvent{TaskID: taskID, Kind: EventStatus, Payload: string(domain.BatchRunning)})
	return nil
}

// StopTask aborts a running task, terminating any in-flight download.
func (m *BatchManager) StopTask(taskID string) error {
	worker, err := m.workerFor(taskID)
	if err != nil {
		return err
	}
	worker.Stop()
	return nil
}

// GetTask loads one task by ID.
func (m *BatchManager) GetTask(taskID string) (*domain.BatchTask, error) {
	return m.repo.FindByID(taskID)
}

// ListTasks returns all known tasks, newest first.
func (m *BatchManager) ListTasks() ([]*domain.BatchTask, error) {
	return m.repo.FindAll()
}

// DeleteTask removes a finished task's record. Running tasks must be
// stopped first.
func (m *BatchManager) DeleteTask(taskID string) error {
	m.mu.RLock()
	_, running := m.workers[taskID]
	m.mu.RUnlock()
	if running {
		return fmt.Errorf("task %s is still running, stop it first", taskID)
	}
	return m.repo.Delete(taskID)
}

// AggregateStats sums the counters of all finished tasks.
func (m *BatchManager) AggregateStats() (*domain.DownloadStats, error) {
	return m.repo.AggregateStats()
}

// ActiveCount reports how many workers are currently live.
func (m *BatchManager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}

// StopAll stops every live worker and waits for their final stats,
// used during shutdown.
func (m *BatchManager) StopAll() {
	m.mu.RLock()
	workers := make([]*BatchWorker, 0, len(m.workers))
	for _, w := range m.workers {
		workers = append(workers, w)
	}
	m.mu.RUnlock()

	for _, w := range workers {
		w.Stop()
	}
	for _, w := range workers {
		<-w.Done()
	}
}

// Subscribe registers a channel for batch events. Slow subscribers drop
// events rather than block workers.
func (m *BatchManager) Subscribe() chan BatchEvent {
	ch := make(chan BatchEvent, 64)
	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()
	return ch
}

// Unsubscribe removes a previously registered channel and closes it.
func (m *BatchManager) Unsubscribe(ch chan BatchEvent) {
	m.subMu.Lock()
	if _, ok := m.subscribers[ch]; ok {
		delete(m.subscribers, ch)
		close(ch)
	}
	m.subMu.Unlock()
}

func (m *BatchManager) publish(event BatchEvent) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for ch := range m.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (m *BatchManager) workerFor(taskID string) (*BatchWorker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	worker, ok := m.workers[taskID]
	if !ok {
		return nil, fmt.Errorf("no running task with id %s", taskID)
	}
	return worker, nil
}

func (m *BatchManager) updateStatus(taskID string, status domain.BatchStatus) {
	task, err := m.repo.FindByID(taskID)
	if err != nil {
		return
	}
	task.Status = status
	if err := m.repo.Update(task); err != nil {
		m.logger.Error("Failed to persist task status", zap.String("task_id", taskID), zap.Error(err))
	}
}

// OnStatus implements BatchListener.
func (m *BatchManager) OnStatus(taskID, status string) {
	m.publish(BatchEvent{TaskID: taskID, Kind: EventStatus, Payload: status})
}

// OnProgress implements BatchListener.
func (m *BatchManager) OnProgress(taskID, progress string) {
	m.publish(BatchEvent{TaskID: taskID, Kind: EventProgress, Payload: progress})
}

// OnLog implements BatchListener.
func (m *BatchManager) OnLog(taskID, line string) {
	m.logger.Debug("Batch output", zap.String("task_id", taskID), zap.String("line", line))
	m.publish(BatchEvent{TaskID: taskID, Kind: EventLog, Payload: line})
}

// OnFinished implements BatchListener. The worker has already stamped
// its final stats and terminal status on the task.
func (m *BatchManager) OnFinished(taskID string, stats *domain.DownloadStats) {
	m.mu.Lock()
	worker, ok := m.workers[taskID]
	delete(m.workers, taskID)
	m.mu.Unlock()

	if ok {
		if err := m.repo.Update(worker.task); err != nil {
			m.logger.Error("Failed to persist finished task", zap.String("task_id", taskID), zap.Error(err))
		}
	}

	m.logger.Info("Batch task finished",
		zap.String("task_id", taskID),
		zap.String("summary", stats.Summary()))
	m.publish(BatchEvent{TaskID: taskID, Kind: EventFinished, Payload: stats.Summary()})

	if m.notifier != nil {
		m.notifier.NotifyBatchFinished(taskID, stats)
	}
}
