//go:build windows

package infrastructure

import (
	"os"
	"os/exec"
)

func configureProcessGroup(cmd *exec.Cmd) {}

// terminateProcess kills directly; Windows has no graceful signal for
// console child processes started without a console group.
func terminateProcess(proc *os.Process) error {
	return proc.Kill()
}

func killProcess(proc *os.Process) error {
	return proc.Kill()
}
