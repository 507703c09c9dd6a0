package browser

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// The pid of a browser spawned by `browser launch` is recorded so later
// invocations (`browser status`, `browser stop`) can find and terminate it.

// StateDir returns ~/.skillet, creating it if needed.
func StateDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	dir := filepath.Join(homeDir, ".skillet")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating state directory")
	}
	return dir, nil
}

func pidFilePath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "browser.pid"), nil
}

// WritePIDFile records the pid of a launched browser.
func WritePIDFile(pid int) error {
	path, err := pidFilePath()
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644), "writing pid file")
}

// ReadPIDFile returns the recorded pid, or 0 when none is recorded.
func ReadPIDFile() (int, error) {
	path, err := pidFilePath()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "reading pid file")
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "pid file is malformed")
	}
	return pid, nil
}

// ClearPIDFile removes the recorded pid, if any.
func ClearPIDFile() error {
	path, err := pidFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing pid file")
	}
	return nil
}
