//go:build windows

package osutil

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// DetachSysProcAttr provides attributes for detaching processes on Windows.
var DetachSysProcAttr = syscall.SysProcAttr{
	CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	HideWindow:    true,
}

// SetProcessGroup configures the command to run in its own process group.
// Windows has no Setpgid equivalent for foreground processes.
func SetProcessGroup(_ *exec.Cmd) {}

// KillProcessGroup terminates the process with the given pid. Child
// processes may survive; Windows lacks Unix-style process groups.
func KillProcessGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrapf(err, "killing process %d", pid)
	}
	return nil
}
