// Package presenter provides consistent CLI output for user-facing messages:
// success, failure, warning and informational lines with color support and a
// quiet mode.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Presenter defines the interface for consistent CLI output
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Failure(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Separator()
	SetQuiet(quiet bool)
}

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	colorMode   ColorMode
	quiet       bool
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto lets the color package detect terminal capabilities
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output
	ColorAlways
	// ColorNever disables colored output
	ColorNever
)

// New creates a TerminalPresenter writing to stdout and stderr
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom settings
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	p := &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		colorMode:   colorMode,
	}

	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	case ColorAuto:
	}

	return p
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("PLUGINKIT_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Output returns the writer used for regular output
func (p *TerminalPresenter) Output() io.Writer {
	return p.output
}

// Error displays an error message to stderr. Errors are shown in quiet mode too.
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success displays a success message
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

// Failure displays a non-fatal per-item failure on the regular output
func (p *TerminalPresenter) Failure(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgRed, color.Bold).Fprintf(p.output, "✗ %s\n", message)
}

// Warning displays a warning message
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.output, "⚠ %s\n", message)
}

// Info displays an informational message
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s\n", message)
}

// Section displays an underlined section header
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}

	headerColor := color.New(color.Bold)
	headerColor.Fprintf(p.output, "%s\n", title)
	headerColor.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

// Separator displays a visual separator
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	color.New(color.Faint).Fprintf(p.output, "%s\n", strings.Repeat("-", 60))
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

var defaultPresenter = New()

// Default returns the process-wide presenter.
func Default() *TerminalPresenter {
	return defaultPresenter
}

// Error displays an error message using the default presenter.
func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}
