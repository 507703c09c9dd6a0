// Package presenter provides consistent user-facing CLI output: success,
// error, warning, and informational messages with color support, honoring
// NO_COLOR and quiet mode. Log output goes through pkg/logger; everything a
// human is meant to read goes through here.
package presenter

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// ColorMode represents the color output modes.
type ColorMode int

const (
	// ColorAuto lets the color package detect terminal capabilities.
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output.
	ColorAlways
	// ColorNever disables colored output.
	ColorNever
)

// Presenter writes user-facing messages to a terminal.
type Presenter struct {
	output      io.Writer
	errorOutput io.Writer
	quiet       bool
}

var defaultPresenter = New()

// New creates a Presenter on stdout/stderr with environment-driven colors.
func New() *Presenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a Presenter with explicit outputs and color mode.
func NewWithOptions(output, errorOutput io.Writer, mode ColorMode) *Presenter {
	switch mode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
	return &Presenter{output: output, errorOutput: errorOutput}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	switch os.Getenv("SKILLET_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	}
	return ColorAuto
}

// SetQuiet suppresses non-error output.
func (p *Presenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// Error displays an error with optional context to stderr. Never quiet.
func (p *Presenter) Error(err error, context string) {
	if err == nil {
		return
	}
	c := color.New(color.FgRed, color.Bold)
	if context != "" {
		c.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		c.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success displays a success message.
func (p *Presenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen).Fprintf(p.output, "%s\n", message)
}

// Warning displays a warning message to stderr.
func (p *Presenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow).Fprintf(p.errorOutput, "[WARN] %s\n", message)
}

// Info displays an informational message.
func (p *Presenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s\n", message)
}

// Section displays a section header.
func (p *Presenter) Section(title string) {
	if p.quiet {
		return
	}
	color.New(color.Bold).Fprintf(p.output, "\n%s\n", title)
}

// Package-level helpers writing through the default presenter.

// Error writes an error through the default presenter.
func Error(err error, context string) { defaultPresenter.Error(err, context) }

// Success writes a success message through the default presenter.
func Success(message string) { defaultPresenter.Success(message) }

// Warning writes a warning through the default presenter.
func Warning(message string) { defaultPresenter.Warning(message) }

// Info writes an informational message through the default presenter.
func Info(message string) { defaultPresenter.Info(message) }

// Section writes a section header through the default presenter.
func Section(title string) { defaultPresenter.Section(title) }

// SetQuiet toggles quiet mode on the default presenter.
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }
