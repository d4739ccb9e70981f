//go:build unix

// Package osutil holds small platform helpers for running external commands.
package osutil

import (
	"errors"
	"os/exec"
	"syscall"
)

// SetProcessGroup configures the command to run in its own process group so
// the whole tree it spawns can be signalled at once.
func SetProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// SetProcessGroupKill makes context cancellation kill the entire process group.
// Must be called after SetProcessGroup and before cmd.Start().
func SetProcessGroupKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return err
	}
}
