//go:build windows

package shell

import (
	"os/exec"
	"time"
)

// setProcessGroup keeps the default cancellation (Process.Kill); WaitDelay
// still bounds the wait for the output pipes.
func setProcessGroup(cmd *exec.Cmd, killTimeout time.Duration) func() {
	return func() {}
}
