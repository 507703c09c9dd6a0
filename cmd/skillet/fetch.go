package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillet-sh/skillet/pkg/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a URL and print it as markdown",
	Long: `Fetch a URL over HTTPS (HTTP is allowed for localhost) and print the
response as markdown. HTML responses are stripped of scripts and chrome and
converted; markdown and plain text pass through unchanged. Redirects are
followed only within the original domain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := fetch.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, result.Markdown)
		return nil
	},
}
