package rendering

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal
const DefaultWidth = 80

// hyperlinkPrograms are TERM_PROGRAM values known to understand OSC 8
var hyperlinkPrograms = map[string]bool{
	"ghostty":   true,
	"kitty":     true,
	"wezterm":   true,
	"iTerm.app": true,
	"vscode":    true,
}

// IsHyperlinksSupported returns true if the terminal supports OSC 8 hyperlinks
func IsHyperlinksSupported() bool {
	if hyperlinkPrograms[os.Getenv("TERM_PROGRAM")] {
		return true
	}
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	return strings.Contains(os.Getenv("TERM"), "xterm")
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Width returns the column count of the terminal behind f, or DefaultWidth
// when it cannot be determined.
func Width(f *os.File) int {
	if f == nil {
		return DefaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}
