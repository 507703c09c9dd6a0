package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillet-sh/skillet/pkg/browser"
	"github.com/skillet-sh/skillet/pkg/fetch"
	"github.com/skillet-sh/skillet/pkg/logger"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Render a page in a one-shot headless browser and print it as markdown",
	Long: `Spawn a disposable headless Firefox with an empty profile, load the URL,
and print the rendered page as markdown. The browser is torn down when the
command exits. Useful for pages that require JavaScript to render; plain
pages are cheaper through "skillet fetch".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		profileDir, err := os.MkdirTemp("", "skillet-extract-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(profileDir)

		m := newManager()
		return m.WithSession(ctx, browser.LaunchRequest{
			Mode:       browser.SpawnHeadless,
			ProfileDir: profileDir,
			Binary:     viper.GetString("browser_bin"),
		}, func(s *browser.Session) error {
			ref, err := browser.ResolvePage(ctx, s)
			if err != nil {
				return err
			}
			if _, err := browser.Navigate(ctx, s, ref, args[0], pageOpTimeout); err != nil {
				return err
			}

			// Give late scripts a beat to settle before reading the DOM.
			time.Sleep(500 * time.Millisecond)

			html, err := browser.PageHTML(ctx, s, ref, pageOpTimeout)
			if err != nil {
				return err
			}
			logger.G(ctx).WithField("bytes", len(html)).Debug("page HTML captured")
			fmt.Fprintln(os.Stdout, fetch.ToMarkdown(ctx, html))
			return nil
		})
	},
}
