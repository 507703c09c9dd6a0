package browser

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConnectionRefused indicates nothing is listening at the endpoint.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrTimeout indicates the debugging handshake did not complete in time.
	ErrTimeout = errors.New("connection timed out")

	// ErrProtocol indicates a listener answered but the handshake response
	// was not a valid remote-debugging endpoint.
	ErrProtocol = errors.New("remote debugging protocol error")

	// ErrLaunchTimeout indicates a freshly spawned browser never became
	// reachable within the bounded polling window.
	ErrLaunchTimeout = errors.New("browser launch timed out")

	// ErrNoBrowserRunning is surfaced for reuse-only requests when no
	// browser is listening. It is a terminal, user-facing condition.
	ErrNoBrowserRunning = errors.New("no browser running")

	// ErrNoActivePage indicates the session has no open pages at all.
	ErrNoActivePage = errors.New("no active page")
)

// ProcessExitedError indicates the spawned browser process exited before
// it announced a usable debugging endpoint.
type ProcessExitedError struct {
	Code int
}

func (e *ProcessExitedError) Error() string {
	return fmt.Sprintf("browser process exited with code %d", e.Code)
}
