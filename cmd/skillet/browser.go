package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillet-sh/skillet/pkg/browser"
	"github.com/skillet-sh/skillet/pkg/osutil"
	"github.com/skillet-sh/skillet/pkg/presenter"
	"github.com/skillet-sh/skillet/pkg/profile"
)

const pageOpTimeout = 30 * time.Second

// debugEndpoint resolves the remote-debugging endpoint once, in the CLI
// layer, from flag/env/config; nothing deeper reads ambient state.
func debugEndpoint() browser.Endpoint {
	ep := browser.DefaultEndpoint()
	if port := viper.GetInt("browser_port"); port != 0 {
		ep.Port = port
	}
	return ep
}

func newManager() *browser.Manager {
	return browser.NewManager(debugEndpoint(),
		browser.WithProvisioner(&profile.Provisioner{}),
	)
}

var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Drive a Firefox instance over its remote debugging port",
}

type launchOptions struct {
	headless    bool
	fresh       bool
	profileName string
}

var launchOpts = &launchOptions{}

var browserLaunchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Start a Firefox instance with remote debugging enabled",
	Long: `Start a Firefox instance listening on the remote debugging port. If a
browser is already listening, this is a no-op. The browser runs in its own
process group and keeps running after skillet exits; stop it with
"skillet browser stop".

By default the user's profile is copied into a sanitized snapshot under
~/.skillet/firefox-profile so automation never touches the real profile.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m := newManager()
		req := browser.LaunchRequest{
			Mode:        browser.SpawnFresh,
			CopyProfile: !launchOpts.fresh,
			ProfileName: launchOpts.profileName,
			Headless:    launchOpts.headless,
			Binary:      viper.GetString("browser_bin"),
		}

		s, err := m.Acquire(cmd.Context(), req)
		if err != nil {
			return err
		}
		defer m.Release(cmd.Context(), s)

		if s.Ownership == browser.OwnershipSpawned {
			if err := browser.WritePIDFile(s.Pid()); err != nil {
				presenter.Warning(fmt.Sprintf("could not record browser pid: %v", err))
			}
			presenter.Success(fmt.Sprintf("Browser launched on %s (pid %d)", s.Endpoint, s.Pid()))
			// Hand the process over to the pid file so Release leaves it running.
			s.Detach()
		} else {
			presenter.Info(fmt.Sprintf("Browser already running on %s", s.Endpoint))
		}
		return nil
	},
}

var browserNavigateCmd = &cobra.Command{
	Use:   "navigate <url>",
	Short: "Navigate the active tab to a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		return m.WithSession(cmd.Context(), browser.LaunchRequest{Mode: browser.ReuseOnly}, func(s *browser.Session) error {
			ref, err := browser.ResolvePage(cmd.Context(), s)
			if err != nil {
				return err
			}
			result, err := browser.Navigate(cmd.Context(), s, ref, args[0], pageOpTimeout)
			if err != nil {
				return err
			}
			presenter.Success(fmt.Sprintf("Navigated to %s\nTitle: %s", result.URL, result.Title))
			return nil
		})
	},
}

var browserEvalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate a JavaScript expression in the active tab",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		return m.WithSession(cmd.Context(), browser.LaunchRequest{Mode: browser.ReuseOnly}, func(s *browser.Session) error {
			ref, err := browser.ResolvePage(cmd.Context(), s)
			if err != nil {
				return err
			}
			raw, err := browser.Evaluate(cmd.Context(), s, ref, args[0], pageOpTimeout)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(raw))
			return nil
		})
	},
}

type screenshotOptions struct {
	output string
}

var screenshotOpts = &screenshotOptions{}

var browserScreenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a full-page screenshot of the active tab",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m := newManager()
		return m.WithSession(cmd.Context(), browser.LaunchRequest{Mode: browser.ReuseOnly}, func(s *browser.Session) error {
			ref, err := browser.ResolvePage(cmd.Context(), s)
			if err != nil {
				return err
			}
			buf, err := browser.Screenshot(cmd.Context(), s, ref, pageOpTimeout)
			if err != nil {
				return err
			}

			outputPath := screenshotOpts.output
			if outputPath == "" {
				stateDir, err := browser.StateDir()
				if err != nil {
					return err
				}
				dir := filepath.Join(stateDir, "screenshots")
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return errors.Wrap(err, "creating screenshots directory")
				}
				outputPath = filepath.Join(dir, uuid.New().String()+".png")
			}
			if err := os.WriteFile(outputPath, buf, 0o644); err != nil {
				return errors.Wrap(err, "writing screenshot")
			}
			presenter.Success(fmt.Sprintf("Screenshot saved to %s", outputPath))
			return nil
		})
	},
}

type cookiesOptions struct {
	domain string
}

var cookiesOpts = &cookiesOptions{}

var browserCookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "List cookies visible to the active tab",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m := newManager()
		return m.WithSession(cmd.Context(), browser.LaunchRequest{Mode: browser.ReuseOnly}, func(s *browser.Session) error {
			ref, err := browser.ResolvePage(cmd.Context(), s)
			if err != nil {
				return err
			}
			cookies, err := browser.Cookies(cmd.Context(), s, ref, cookiesOpts.domain, pageOpTimeout)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(cookies, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(out))
			return nil
		})
	},
}

var browserStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a browser is reachable and who owns it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ep := debugEndpoint()
		connector := browser.NewConnector()

		s, err := connector.Connect(cmd.Context(), ep, 3*time.Second)
		if err != nil {
			presenter.Info(fmt.Sprintf("No browser listening on %s", ep))
		} else {
			presenter.Success(fmt.Sprintf("Browser listening on %s", ep))
			newManager().Release(cmd.Context(), s)
		}

		pid, err := browser.ReadPIDFile()
		if err != nil || pid == 0 {
			return nil
		}
		proc, procErr := process.NewProcess(int32(pid))
		if procErr != nil {
			presenter.Info(fmt.Sprintf("Recorded browser pid %d is no longer running", pid))
			return nil
		}
		name, _ := proc.Name()
		presenter.Info(fmt.Sprintf("skillet-launched browser: pid %d (%s)", pid, name))
		return nil
	},
}

var browserStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Terminate a skillet-launched browser",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		pid, err := browser.ReadPIDFile()
		if err != nil {
			return err
		}
		if pid == 0 {
			presenter.Info("No skillet-launched browser recorded")
			return nil
		}
		if err := osutil.KillProcessGroup(pid); err != nil {
			return err
		}
		if err := browser.ClearPIDFile(); err != nil {
			return err
		}
		presenter.Success(fmt.Sprintf("Browser pid %d terminated", pid))
		return nil
	},
}

func init() {
	browserLaunchCmd.Flags().BoolVar(&launchOpts.headless, "headless", false, "Run the browser headless")
	browserLaunchCmd.Flags().BoolVar(&launchOpts.fresh, "fresh", false, "Start with an empty profile instead of copying the user's")
	browserLaunchCmd.Flags().StringVar(&launchOpts.profileName, "profile", "", "Copy the named Firefox profile instead of the default")

	browserScreenshotCmd.Flags().StringVarP(&screenshotOpts.output, "output", "o", "", "Output file (default ~/.skillet/screenshots/<uuid>.png)")
	browserCookiesCmd.Flags().StringVar(&cookiesOpts.domain, "domain", "", "Only cookies for this domain")

	browserCmd.AddCommand(browserLaunchCmd)
	browserCmd.AddCommand(browserNavigateCmd)
	browserCmd.AddCommand(browserEvalCmd)
	browserCmd.AddCommand(browserScreenshotCmd)
	browserCmd.AddCommand(browserCookiesCmd)
	browserCmd.AddCommand(browserStatusCmd)
	browserCmd.AddCommand(browserStopCmd)
}
