package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table renders aligned label/value rows, the shape of every field listing
// the CLI prints (entry fields, config show). Labels are muted; the style is
// applied after the width arithmetic so ANSI sequences never skew alignment.
type Table struct {
	rows       [][2]string
	labelWidth int
}

// NewTable creates an empty two-column table.
func NewTable() *Table {
	return &Table{}
}

// AddRow appends a label/value pair.
func (t *Table) AddRow(label, value string) {
	if w := runewidth.StringWidth(label); w > t.labelWidth {
		t.labelWidth = w
	}
	t.rows = append(t.rows, [2]string{label, value})
}

// String renders the table.
func (t *Table) String() string {
	var sb strings.Builder
	for _, row := range t.rows {
		label, value := row[0], row[1]
		sb.WriteString(Muted.Render(label))
		sb.WriteString(strings.Repeat(" ", t.labelWidth-runewidth.StringWidth(label)))
		sb.WriteString("  ")
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	return sb.String()
}
