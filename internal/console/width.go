package console

import (
	"io"
	"os"

	"golang.org/x/term"
)

const (
	defaultWidth = 80
	minWidth     = 20
	maxWidth     = 120
)

// TerminalWidth returns the column count of w when it is a terminal, capped
// to a readable line length, and defaultWidth otherwise.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols < minWidth {
		return defaultWidth
	}
	return min(cols, maxWidth)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
