package ui

import (
	"os"
	"strconv"

	"github.com/charmbracelet/x/term"
)

// DefaultTermWidth is the fallback width when nothing better is known.
const DefaultTermWidth = 120

// DisplayContext carries the terminal parameters candidate rendering needs.
type DisplayContext struct {
	TermWidth int  // detected width, COLUMNS, or the fallback
	IsTTY     bool // whether stdout is a terminal
}

// NewDisplayContext probes stdout. Piped output has no TTY to measure, so
// COLUMNS is honored there; an external picker wrapping the porcelain list
// can export it to keep candidates fitted to the real screen.
func NewDisplayContext() *DisplayContext {
	fd := os.Stdout.Fd()
	isTTY := term.IsTerminal(fd)

	width := DefaultTermWidth
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	} else if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 {
		width = cols
	}

	return &DisplayContext{TermWidth: width, IsTTY: isTTY}
}
