package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	// Status colors
	UpToDate        = color.New(color.FgGreen)
	UpdateAvailable = color.New(color.FgYellow)
	LookupFailed    = color.New(color.FgRed)
	ClientOnly      = color.New(color.FgMagenta)
	NotOnRegistry   = color.New(color.FgCyan)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header  = color.New(color.FgWhite, color.Bold)
	Project = color.New(color.FgBlue, color.Bold)
)

// Message prefixes
const (
	SuccessMark = "✓"
	WarningMark = "⚠"
	ErrorMark   = "✗"
	InfoMark    = "→"
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// StatusColor returns the color for a check status name
func StatusColor(status string) *color.Color {
	switch status {
	case "up-to-date", "updated":
		return UpToDate
	case "update-available", "skipped", "hash-mismatch":
		return UpdateAvailable
	case "lookup-failed", "failed":
		return LookupFailed
	case "client-only":
		return ClientOnly
	case "not-on-registry":
		return NotOnRegistry
	default:
		return color.New(color.Reset)
	}
}

// StatusMark returns the message prefix for a check status name
func StatusMark(status string) string {
	switch status {
	case "up-to-date", "updated":
		return SuccessMark
	case "update-available", "client-only", "skipped", "hash-mismatch":
		return WarningMark
	case "lookup-failed", "failed":
		return ErrorMark
	default:
		return InfoMark
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf(SuccessMark+" "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, ErrorMark+" "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Printf(WarningMark+" "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Printf(InfoMark+" "+format+"\n", args...)
}

// Sprintf returns a colored string without printing
func Sprintf(c *color.Color, format string, args ...interface{}) string {
	return c.Sprintf(format, args...)
}

// Sprint returns a colored string without printing
func Sprint(c *color.Color, a ...interface{}) string {
	return c.Sprint(a...)
}

// FormatStatus formats a status name with its color
func FormatStatus(status string) string {
	c := StatusColor(status)
	return c.Sprintf("[%s]", status)
}

// FormatProject formats a project title with color
func FormatProject(title string) string {
	return Project.Sprint(title)
}

// StatusLine writes one report line: the status mark and message in the
// status color.
func StatusLine(w io.Writer, status, format string, args ...interface{}) {
	c := StatusColor(status)
	c.Fprintf(w, StatusMark(status)+" "+format+"\n", args...)
}

// Box prints a boxed message
func Box(w io.Writer, title, content string) {
	fmt.Fprintln(w)
	Header.Fprintln(w, "┌─ "+title+" ─")
	fmt.Fprintln(w, "│")
	fmt.Fprintln(w, "│  "+content)
	fmt.Fprintln(w, "│")
	Header.Fprintln(w, "└────────────────")
	fmt.Fprintln(w)
}
