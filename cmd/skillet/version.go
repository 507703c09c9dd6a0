package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillet-sh/skillet/pkg/version"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		info := version.Get()
		if versionJSON {
			out, err := info.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, out)
			return nil
		}
		fmt.Fprintln(os.Stdout, info.String())
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
}
