//go:build unix

// Package osutil provides platform-specific process helpers: spawning
// detached process groups and terminating whole process trees.
package osutil

import (
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// DetachSysProcAttr provides syscall attributes for detaching processes on
// Unix systems. The child gets its own process group so the CLI can exit
// independently and so the whole tree can be terminated later by pgid.
var DetachSysProcAttr = syscall.SysProcAttr{
	Setpgid: true,
	Pgid:    0, // the child's own pid becomes the group id
}

// SetProcessGroup configures the command to run in its own process group.
func SetProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// KillProcessGroup terminates the process group rooted at pid. A process
// that is already gone is not an error.
func KillProcessGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if err == nil || err == syscall.ESRCH {
		return nil
	}
	return errors.Wrapf(err, "killing process group %d", pid)
}
