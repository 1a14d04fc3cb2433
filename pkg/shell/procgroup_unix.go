//go:build !windows

package shell

import (
	"os/exec"
	"syscall"
	"time"
)

// setProcessGroup puts cmd into a new process group and makes cancellation
// signal the entire group. The returned func stops the pending kill.
func setProcessGroup(cmd *exec.Cmd, killTimeout time.Duration) func() {
	var killTimer *time.Timer

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		pgid := -cmd.Process.Pid
		killTimer = time.AfterFunc(killTimeout, func() {
			syscall.Kill(pgid, syscall.SIGKILL)
		})

		return syscall.Kill(pgid, syscall.SIGTERM)
	}

	return func() {
		if killTimer != nil {
			killTimer.Stop()
		}
	}
}
