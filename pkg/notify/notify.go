// Package notify delivers desktop notifications through the platform's
// notifier binary and provides the debouncer used for idle detection.
// Delivery semantics belong to the OS notifier; this package only locates
// and invokes it.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

// Send displays a desktop notification via notify-send (Linux) or
// osascript (macOS).
func Send(ctx context.Context, title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.CommandContext(ctx, "osascript", "-e", script)
	case "linux":
		cmd = exec.CommandContext(ctx, "notify-send", title, body)
	default:
		return errors.Errorf("desktop notifications not supported on %s", runtime.GOOS)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "notifier failed: %s", string(out))
	}
	return nil
}
