package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillet-sh/skillet/pkg/convert"
	"github.com/skillet-sh/skillet/pkg/presenter"
)

type convertOptions struct {
	output string
	binary string
}

var convertOpts = &convertOptions{}

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a document to markdown",
	Long: `Convert an office document, ebook, or HTML file to GitHub-flavored
markdown using pandoc. Supported inputs: docx, pptx, odt, epub, html, rst,
tex, md. The output lands next to the input with a .md extension unless
--output is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, err := convert.Convert(cmd.Context(), args[0], convert.Options{
			Binary:     convertOpts.binary,
			OutputPath: convertOpts.output,
		})
		if err != nil {
			return err
		}
		presenter.Success(fmt.Sprintf("Converted to %s", outputPath))
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertOpts.output, "output", "o", "", "Output file path")
	convertCmd.Flags().StringVar(&convertOpts.binary, "converter", "", "Converter executable (default pandoc)")
}
