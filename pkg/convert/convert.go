// Package convert wraps an external document converter (pandoc by default)
// to turn office documents, ebooks, and HTML into markdown. Conversion
// internals belong to the external tool; this package only locates it,
// shapes the invocation, and surfaces its failures.
package convert

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/skillet-sh/skillet/pkg/logger"
	"github.com/skillet-sh/skillet/pkg/osutil"
)

// DefaultBinary is the converter executable looked up on PATH.
const DefaultBinary = "pandoc"

const conversionTimeout = 5 * time.Minute

// Input formats the wrapper accepts, keyed by extension. Values are the
// format names passed to the converter; empty means let it sniff.
var supportedFormats = map[string]string{
	".docx": "docx",
	".pptx": "pptx",
	".odt":  "odt",
	".epub": "epub",
	".html": "html",
	".htm":  "html",
	".rst":  "rst",
	".tex":  "latex",
	".md":   "markdown",
}

// Options configures a conversion.
type Options struct {
	Binary     string // converter executable; empty means DefaultBinary
	OutputPath string // destination file; empty means alongside the input with .md
}

// SupportedFormat reports whether the file extension is convertible and
// the converter format name it maps to.
func SupportedFormat(inputPath string) (string, bool) {
	format, ok := supportedFormats[strings.ToLower(filepath.Ext(inputPath))]
	return format, ok
}

// OutputPathFor derives the default output path for an input document.
func OutputPathFor(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".md"
}

// Convert runs the external converter on inputPath and returns the path of
// the produced markdown file.
func Convert(ctx context.Context, inputPath string, opts Options) (string, error) {
	format, ok := SupportedFormat(inputPath)
	if !ok {
		return "", errors.Errorf("unsupported input format %q", filepath.Ext(inputPath))
	}

	binary := opts.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	binaryPath, err := exec.LookPath(binary)
	if err != nil {
		return "", errors.Wrapf(err, "converter %q not found on PATH", binary)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = OutputPathFor(inputPath)
	}

	ctx, cancel := context.WithTimeout(ctx, conversionTimeout)
	defer cancel()

	args := []string{"--from", format, "--to", "gfm", "--output", outputPath, inputPath}
	cmd := exec.CommandContext(ctx, binaryPath, args...)
	osutil.SetProcessGroup(cmd)

	logger.G(ctx).WithFields(map[string]interface{}{
		"converter": binaryPath,
		"input":     inputPath,
		"output":    outputPath,
	}).Debug("running document converter")

	if out, err := cmd.CombinedOutput(); err != nil {
		return "", errors.Wrapf(err, "converter failed: %s", strings.TrimSpace(string(out)))
	}
	return outputPath, nil
}
