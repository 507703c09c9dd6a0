package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/skillet-sh/skillet/pkg/logger"
	"github.com/skillet-sh/skillet/pkg/notify"
	"github.com/skillet-sh/skillet/pkg/presenter"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Desktop notifications and idle watching",
}

type notifySendOptions struct {
	title string
}

var notifySendOpts = &notifySendOptions{}

var notifySendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a desktop notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return notify.Send(cmd.Context(), notifySendOpts.title, args[0])
	},
}

type notifyWatchOptions struct {
	quiet   time.Duration
	message string
}

var notifyWatchOpts = &notifyWatchOptions{}

var notifyWatchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Notify when a watched path goes quiet",
	Long: `Watch a file or directory and send a desktop notification once no write
activity has occurred for the quiet period. Intended for noticing when a
long-running agent has stopped producing output. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		// fsnotify watches directories non-recursively; for a file, watch
		// its parent so rename-and-replace writers are still seen.
		watchTarget := path
		if !info.IsDir() {
			watchTarget = filepath.Dir(path)
		}
		if err := watcher.Add(watchTarget); err != nil {
			return err
		}

		debouncer := notify.NewDebouncer(notifyWatchOpts.quiet, func() {
			msg := notifyWatchOpts.message
			if msg == "" {
				msg = fmt.Sprintf("%s has been quiet for %s", path, notifyWatchOpts.quiet)
			}
			if err := notify.Send(ctx, "skillet", msg); err != nil {
				logger.G(ctx).WithError(err).Warn("failed to send notification")
			}
		})
		defer debouncer.Stop()
		debouncer.Touch()

		presenter.Info(fmt.Sprintf("Watching %s (quiet period %s)", path, notifyWatchOpts.quiet))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !info.IsDir() && filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				logger.G(ctx).WithField("event", event.String()).Debug("activity")
				debouncer.Touch()
			case werr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.G(ctx).WithError(werr).Warn("watch error")
			case <-sigCh:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	},
}

func init() {
	notifySendCmd.Flags().StringVar(&notifySendOpts.title, "title", "skillet", "Notification title")

	notifyWatchCmd.Flags().DurationVar(&notifyWatchOpts.quiet, "quiet-period", 30*time.Second, "How long with no activity before notifying")
	notifyWatchCmd.Flags().StringVar(&notifyWatchOpts.message, "message", "", "Notification message (default describes the watched path)")

	notifyCmd.AddCommand(notifySendCmd)
	notifyCmd.AddCommand(notifyWatchCmd)
}
