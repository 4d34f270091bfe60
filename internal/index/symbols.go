package index

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// SymbolPair is the present/absent marker pair for one resource kind. The
// two symbols are expected to share a display width so the prefix column
// stays fixed.
type SymbolPair struct {
	Present string
	Absent  string
}

func (p SymbolPair) pick(present bool) string {
	if present {
		return p.Present
	}
	return p.Absent
}

// Balanced reports whether both symbols occupy the same display width.
func (p SymbolPair) Balanced() bool {
	return runewidth.StringWidth(p.Present) == runewidth.StringWidth(p.Absent)
}

// width is the wider of the pair, in display columns.
func (p SymbolPair) width() int {
	w := runewidth.StringWidth(p.Present)
	if a := runewidth.StringWidth(p.Absent); a > w {
		return a
	}
	return w
}

// Symbols configures the fixed-width availability column rendered in front
// of every candidate line.
type Symbols struct {
	File      SymbolPair
	Note      SymbolPair
	Link      SymbolPair
	Separator string
}

// DefaultSymbols returns the stock column: ⌘ for an attached document, ✎
// for a note, @ for a link, one space where absent.
func DefaultSymbols() Symbols {
	return Symbols{
		File:      SymbolPair{Present: "⌘", Absent: " "},
		Note:      SymbolPair{Present: "✎", Absent: " "},
		Link:      SymbolPair{Present: "@", Absent: " "},
		Separator: " ",
	}
}

// Prefix renders the column for one candidate's availability.
func (s Symbols) Prefix(a Availability) string {
	parts := []string{
		s.File.pick(a.File),
		s.Note.pick(a.Note),
		s.Link.pick(a.Link),
	}
	return strings.Join(parts, s.Separator)
}

// Width returns the display width of the rendered column, for star-width
// arithmetic.
func (s Symbols) Width() int {
	sep := runewidth.StringWidth(s.Separator)
	return s.File.width() + s.Note.width() + s.Link.width() + 2*sep
}
