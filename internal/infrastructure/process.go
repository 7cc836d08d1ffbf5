package infrastructure

import (
	"bufio"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// LineCallback receives one line of combined process output at a time.
type LineCallback func(line string)

// ProcessTask wraps one external downloader invocation as a cancellable
// unit: it streams combined stdout/stderr line by line, supports
// graceful termination with a bounded grace period escalating to a hard
// kill, and a blocking wait with an optional overall timeout.
type ProcessTask struct {
	cmd   *exec.Cmd
	grace time.Duration

	mu       sync.Mutex
	started  bool
	finished bool
}

// NewProcessTask builds a task for the given binary and argument list.
// grace bounds how long Terminate waits before killing the process.
func NewProcessTask(binary string, args []string, grace time.Duration) *ProcessTask {
	cmd := exec.Command(binary, args...)
	configureProcessGroup(cmd)
	return &ProcessTask{
		cmd:   cmd,
		grace: grace,
	}
}

// SetDir sets the working directory for the process.
func (t *ProcessTask) SetDir(dir string) {
	t.cmd.Dir = dir
}

// Start launches the process and begins streaming its combined output
// to the callback from a dedicated goroutine. The returned channel is
// closed once the output stream is drained.
func (t *ProcessTask) Start(onLine LineCallback) (<-chan struct{}, error) {
	stdout, err := t.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	t.cmd.Stderr = t.cmd.Stdout // combine streams, as 2>&1

	if err := t.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", t.cmd.Path, err)
	}
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onLine != nil {
				onLine(scanner.Text())
			}
		}
	}()
	return done, nil
}

// Wait blocks until the process exits, bounded by timeout when it is
// positive; zero means unbounded. On timeout the process is killed and
// an error is returned.
func (t *ProcessTask) Wait(timeout time.Duration) error {
	if timeout <= 0 {
		return t.finishWait()
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- t.finishWait() }()

	select {
	case err := <-waitErr:
		return err
	case <-time.After(timeout):
		t.kill()
		<-waitErr
		return fmt.Errorf("download timed out after %s", timeout)
	}
}

func (t *ProcessTask) finishWait() error {
	err := t.cmd.Wait()
	t.mu.Lock()
	t.finished = true
	t.mu.Unlock()
	return err
}

// Terminate asks the process to exit gracefully, escalating to a hard
// kill after the grace period. Safe to call from another goroutine and
// after exit.
func (t *ProcessTask) Terminate() {
	t.mu.Lock()
	if !t.started || t.finished || t.cmd.Process == nil {
		t.mu.Unlock()
		return
	}
	proc := t.cmd.Process
	t.mu.Unlock()

	_ = terminateProcess(proc)

	deadline := time.After(t.grace)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-deadline:
			t.kill()
			return
		case <-tick.C:
			t.mu.Lock()
			finished := t.finished
			t.mu.Unlock()
			if finished {
				return
			}
		}
	}
}

func (t *ProcessTask) kill() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd.Process != nil && !t.finished {
		_ = killProcess(t.cmd.Process)
	}
}

// ExitCode returns the process exit code after Wait has returned, or -1
// when unavailable.
func (t *ProcessTask) ExitCode() int {
	if t.cmd.ProcessState == nil {
		return -1
	}
	return t.cmd.ProcessState.ExitCode()
}
