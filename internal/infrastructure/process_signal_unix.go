//go:build !windows

package infrastructure

import (
	"os"
	"os/exec"
	"syscall"
)

// configureProcessGroup puts the child in its own process group so
// termination reaches helper processes it spawns (muxers, fragment
// downloaders) and the output pipe actually closes.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcess sends SIGTERM to the process group so the downloader
// can clean up partial files before exiting.
func terminateProcess(proc *os.Process) error {
	if err := syscall.Kill(-proc.Pid, syscall.SIGTERM); err == nil {
		return nil
	}
	return proc.Signal(syscall.SIGTERM)
}

// killProcess forcefully kills the process group.
func killProcess(proc *os.Process) error {
	if err := syscall.Kill(-proc.Pid, syscall.SIGKILL); err == nil {
		return nil
	}
	return proc.Kill()
}
