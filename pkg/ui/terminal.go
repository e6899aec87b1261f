package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// ASCIILogo is printed by interactive commands
const ASCIILogo = `
    ╔════════════════════════════════════════════════════════════════╗
    ║ ███████╗███████╗███████╗██████╗     ███████╗███╗   ██╗ ██████╗  ║
    ║ ██╔════╝██╔════╝██╔════╝██╔══██╗    ██╔════╝████╗  ██║██╔════╝  ║
    ║ █████╗  █████╗  █████╗  ██║  ██║    █████╗  ██╔██╗ ██║██║  ███╗ ║
    ║ ██╔══╝  ██╔══╝  ██╔══╝  ██║  ██║    ██╔══╝  ██║╚██╗██║██║   ██║ ║
    ║ ██║     ███████╗███████╗██████╔╝    ███████╗██║ ╚████║╚██████╔╝ ║
    ║ ╚═╝     ╚══════╝╚══════╝╚═════╝     ╚══════╝╚═╝  ╚═══╝ ╚═════╝  ║
    ║              FEED ENGAGEMENT ORCHESTRATOR                       ║
    ╚════════════════════════════════════════════════════════════════╝
`

var (
	quiet   atomic.Bool
	noColor atomic.Bool
	output  io.Writer = os.Stdout
)

// SetQuietMode suppresses everything but errors
func SetQuietMode(v bool) { quiet.Store(v) }

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool { return quiet.Load() }

// SetNoColor disables ANSI colors
func SetNoColor(v bool) { noColor.Store(v) }

// SetOutput redirects the Print helpers. It is not safe for concurrent use
// with printing.
func SetOutput(w io.Writer) { output = w }

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(colorString string) func(string) string {
	return func(text string) string {
		if noColor.Load() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if IsQuietMode() {
		return
	}
	fmt.Fprint(output, Cyan(ASCIILogo))
}

// PrintError prints an error message in red, with an optional detail
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(output, Red(msg+": "+fmt.Sprintf("%v", args[0])))
		return
	}
	fmt.Fprintln(output, Red(msg))
}

func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(output, Green(msg))
}

func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(output, "%s: %s\n", Cyan(label), Yellow(value))
}

func PrintWarning(msg string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(output, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
		return
	}
	fmt.Fprintln(output, Yellow(msg))
}

func PrintHighlight(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(output, Magenta(msg))
}
