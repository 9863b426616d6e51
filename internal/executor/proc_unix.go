//go:build !windows

package executor

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcGroup places the child in its own process group and makes context
// cancellation SIGKILL the whole group, so processes forked by the program
// are terminated at the timeout bound along with it.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return os.ErrProcessDone
		}
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if err == syscall.ESRCH {
			return os.ErrProcessDone
		}
		return err
	}
}
