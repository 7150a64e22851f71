// Package ui holds the terminal helpers used by the igclient CLI
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logo is printed at the top of interactive commands
const Logo = `
  _            _ _            _
 (_)__ _   __| (_)___ _ _  | |_
 | / _' | / _| | / -_) ' \ |  _|
 |_\__, | \__|_|_\___|_||_| \__|
   |___/
`

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	errOut  io.Writer = os.Stderr
	quiet   bool
	noColor bool
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes unless
// colors are disabled
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.Lock()
		plain := noColor
		mu.Unlock()
		if plain {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = enabled
}

// SetNoColor disables ANSI colors
func SetNoColor(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = enabled
}

// SetOutput redirects regular and error output, mostly for tests
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out, errOut = stdout, stderr
}

func writers() (io.Writer, io.Writer, bool) {
	mu.Lock()
	defer mu.Unlock()
	return out, errOut, quiet
}

// PrintLogo prints the logo
func PrintLogo() {
	w, _, q := writers()
	if q {
		return
	}
	fmt.Fprint(w, Cyan(Logo))
}

// PrintError prints an error message in red to stderr. It is never
// suppressed.
func PrintError(msg string, args ...interface{}) {
	_, w, _ := writers()
	if len(args) > 0 && fmt.Sprint(args[0]) != "" {
		fmt.Fprintln(w, Red(msg+": "+fmt.Sprint(args[0])))
		return
	}
	fmt.Fprintln(w, Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	w, _, q := writers()
	if q {
		return
	}
	fmt.Fprintln(w, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	w, _, q := writers()
	if q {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	w, _, q := writers()
	if q {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(w, Yellow(msg+": "+fmt.Sprint(args[0])))
		return
	}
	fmt.Fprintln(w, Yellow(msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	w, _, q := writers()
	if q {
		return
	}
	fmt.Fprintln(w, Magenta(msg))
}
