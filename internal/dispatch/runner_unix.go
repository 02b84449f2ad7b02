//go:build unix

package dispatch

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the extractor in a process group of its own and
// kills the whole group on cancellation, so launcher scripts cannot leave
// children holding the output pipes.
func killProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
